package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcal/internal/calendar"
	"github.com/teemow/inboxcal/internal/google"
	"github.com/teemow/inboxcal/internal/store"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to a Google Calendar account",
		Long: `Authorize inboxcal to read free/busy information of a Google account.

Open the printed URL, grant access and paste the authorization code.
The token is stored per account in the user cache directory.
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if google.GetOAuthConfig().ClientID == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID is not set")
			}

			if google.HasTokenForAccount(account) && !cmd.Flags().Changed("code") {
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s is already authorized; pass --code to replace its token.\n", account)
				return nil
			}

			if code == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Visit this URL to authorize account %s:\n\n%s\n\nAuthorization code: ", account, google.GetAuthURL())
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return fmt.Errorf("authorization code is required")
			}

			if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return fmt.Errorf("failed to authorize account %s: %w", account, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account %s authorized.\n", account)

			// The calendar's zone is a good default for the user's working hours.
			client, err := calendar.NewClientForAccount(cmd.Context(), account)
			if err != nil {
				return nil
			}
			if tz, err := client.GetPrimaryTimeZone(cmd.Context()); err == nil && tz != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Primary calendar time zone: %s\n", tz)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", store.DefaultGoogleAccount, "Google account name")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (prompted for when empty)")

	return cmd
}
