package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcal/internal/gmail"
	"github.com/teemow/inboxcal/internal/google"
	"github.com/teemow/inboxcal/internal/store"
)

func newEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Register emails that calendar candidates are extracted from",
	}

	cmd.AddCommand(newEmailAddCmd())
	cmd.AddCommand(newEmailImportCmd())

	return cmd
}

func newEmailAddCmd() *cobra.Command {
	var (
		userID   int64
		gmailID  string
		threadID string
		subject  string
		sender   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an email for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			e, err := st.CreateEmail(cmd.Context(), store.Email{
				UserID:     userID,
				GmailID:    gmailID,
				ThreadID:   threadID,
				Subject:    subject,
				Sender:     sender,
				ReceivedAt: time.Now(),
			})
			if err != nil {
				return fmt.Errorf("failed to add email: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Email stored as %d\n", e.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "ID of the user who received the email")
	cmd.Flags().StringVar(&gmailID, "gmail-id", "", "Gmail message ID")
	cmd.Flags().StringVar(&threadID, "thread-id", "", "Gmail thread ID")
	cmd.Flags().StringVar(&subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&sender, "sender", "", "Email sender")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("gmail-id")

	return cmd
}

func newEmailImportCmd() *cobra.Command {
	var (
		userID  int64
		gmailID string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register an email using its Gmail metadata",
		Long: `Register an email for a user, reading subject, sender, thread and
receive time from Gmail. The user's Google account must be authorized
(see 'inboxcal auth').`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			account, err := st.AccountForUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}

			client, err := gmail.NewClientForAccountWithProvider(cmd.Context(), account, google.NewFileTokenProvider())
			if err != nil {
				return err
			}

			e, err := importEmail(cmd.Context(), st, client, userID, gmailID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Email stored as %d\n", e.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "ID of the user who received the email")
	cmd.Flags().StringVar(&gmailID, "gmail-id", "", "Gmail message ID")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("gmail-id")

	return cmd
}

// importEmail stores the email behind a Gmail message ID for userID.
func importEmail(ctx context.Context, st *store.Store, client *gmail.Client, userID int64, gmailID string) (*store.Email, error) {
	md, err := client.GetMessageMetadata(ctx, gmailID)
	if err != nil {
		return nil, err
	}

	received := md.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}

	e, err := st.CreateEmail(ctx, store.Email{
		UserID:     userID,
		GmailID:    md.ID,
		ThreadID:   md.ThreadID,
		Subject:    md.Subject,
		Sender:     md.Sender,
		ReceivedAt: received,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add email: %w", err)
	}
	return e, nil
}
