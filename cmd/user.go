package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teemow/inboxcal/internal/preferences"
	"github.com/teemow/inboxcal/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and their scheduling preferences",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserShowCmd())
	cmd.AddCommand(newUserPrefsCmd())

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		email   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user. --account names the Google account whose stored OAuth
token is used for the user's calendar (see 'inboxcal auth').`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			u, err := st.CreateUser(cmd.Context(), email, account)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User stored as %d\n", u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the user")
	cmd.Flags().StringVar(&account, "account", store.DefaultGoogleAccount, "Google account name for calendar access")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			u, err := st.GetUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), u)
		},
	}
}

func newUserPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or replace a user's preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show the effective preferences of a user as YAML",
		Long: `Show the preferences used for scheduling: the stored document with
missing keys filled from the configured defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if _, err := st.GetUser(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}

			prefs, err := preferences.NewResolver(st, settings.Defaults).ForUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}

			data, err := yaml.Marshal(prefs)
			if err != nil {
				return fmt.Errorf("failed to encode preferences: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	var file string
	set := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Replace the stored preferences of a user",
		Long: `Replace the stored preferences of a user with a YAML or JSON document
read from --file, or from stdin when --file is "-".

Example:
  working_hours:
    days: [mon, tue, wed, thu]
    start_time: "08:30"
    end_time: "16:00"
    timezone: Europe/Berlin
  meeting_default_duration_min: 45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}

			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var prefs preferences.Preferences
			if err := yaml.Unmarshal(data, &prefs); err != nil {
				return fmt.Errorf("invalid preferences: %w", err)
			}
			if prefs.WorkingHours != nil {
				if _, err := prefs.WorkingHours.Compile(); err != nil {
					return fmt.Errorf("invalid working hours: %w", err)
				}
			}

			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.SetPreferences(cmd.Context(), userID, prefs); err != nil {
				return fmt.Errorf("failed to store preferences: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Preferences stored for user %d\n", userID)
			return nil
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "-", "Preferences file, or - for stdin")
	cmd.AddCommand(set)

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q: must be a positive integer", s)
	}
	return id, nil
}
