package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcal/internal/store"
	"github.com/teemow/inboxcal/internal/suggest"
)

func newSuggestCmd() *cobra.Command {
	var (
		userID      int64
		candidateID int64
		duration    int
		format      string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest meeting times for a stored candidate",
		Long: `Suggest up to five free meeting times for a stored calendar candidate.

The search honours the user's working hours and the busy times of their
Google Calendar. The suggestions are saved back onto the candidate.

Output formats:
  - text: numbered list (default)
  - json: machine readable
  - ics:  iCalendar file with one tentative event per suggestion`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := suggest.ParseFormat(format)
			if err != nil {
				return err
			}

			var override *int
			if cmd.Flags().Changed("duration") {
				override = &duration
			}

			logger := newLogger(debug)
			sc, cleanup, err := newServerContext(cmd.Context(), logger, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			return runSuggest(cmd, sc.Suggester(), sc.Store(), userID, candidateID, override, f)
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "ID of the user who owns the candidate")
	cmd.Flags().Int64Var(&candidateID, "candidate-id", 0, "ID of the calendar candidate")
	cmd.Flags().IntVar(&duration, "duration", 0, "Meeting length in minutes (default: from the candidate or the user's preferences)")
	cmd.Flags().StringVar(&format, "format", suggest.FormatText, "Output format: text, json or ics")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("candidate-id")

	return cmd
}

func runSuggest(cmd *cobra.Command, s *suggest.Suggester, st *store.Store, userID, candidateID int64, duration *int, format string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	suggestions, err := s.Suggest(ctx, suggest.Request{
		UserID:      userID,
		CandidateID: candidateID,
		DurationMin: duration,
	})
	if err != nil {
		return fmt.Errorf("failed to suggest meeting times: %w", err)
	}

	rec, err := st.GetCandidate(ctx, userID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate: %w", err)
	}

	out, err := suggest.Render(format, suggest.Response{CandidateID: candidateID, Suggestions: suggestions}, rec.Payload, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
