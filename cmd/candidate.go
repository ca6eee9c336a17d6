package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcal/internal/candidate"
	"github.com/teemow/inboxcal/internal/store"
)

func newCandidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidate",
		Short: "Manage calendar candidates extracted from emails",
	}

	cmd.AddCommand(newCandidateAddCmd())
	cmd.AddCommand(newCandidateListCmd())

	return cmd
}

func newCandidateAddCmd() *cobra.Command {
	var (
		userID  int64
		emailID int64
		file    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a calendar candidate for an email",
		Long: `Store a calendar candidate payload (JSON) for an email.

The payload is read from --file, or from stdin when --file is "-".
A candidate equal to one already stored for the same email is not
stored twice; the existing ID is reported instead.

Example payload:
  {"type": "DATE_RANGE", "start": "2030-01-07T09:00:00Z",
   "end": "2030-01-07T12:00:00Z", "title": "Project sync"}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			if len(bytes.TrimSpace(data)) == 0 {
				return fmt.Errorf("payload is required")
			}

			p, err := candidate.ParsePayload(data)
			if err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			c, inserted, err := st.AddCandidate(cmd.Context(), userID, emailID, p)
			if err != nil {
				return fmt.Errorf("failed to add candidate: %w", err)
			}

			if !inserted {
				fmt.Fprintf(cmd.OutOrStdout(), "Candidate already stored as %d\n", c.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidate stored as %d\n", c.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "ID of the user who owns the email")
	cmd.Flags().Int64Var(&emailID, "email-id", 0, "ID of the email the candidate was extracted from")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Payload file, or - for stdin")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email-id")

	return cmd
}

func newCandidateListCmd() *cobra.Command {
	var (
		userID  int64
		emailID int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the calendar candidates of an email as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(newLogger(false), nil)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			candidates, err := st.ListCandidates(cmd.Context(), userID, emailID)
			if err != nil {
				return fmt.Errorf("failed to list candidates: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), candidates)
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "ID of the user who owns the email")
	cmd.Flags().Int64Var(&emailID, "email-id", 0, "ID of the email")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email-id")

	return cmd
}

// readInput returns the contents of path, or of the command's stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeJSON prints v as indented JSON. Nil candidate lists print as [].
func writeJSON(w io.Writer, v any) error {
	if list, ok := v.([]store.Candidate); ok && list == nil {
		v = []store.Candidate{}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
