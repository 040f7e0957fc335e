package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"example.com/stravahook/internal/config"
	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/persistence"
	"example.com/stravahook/internal/strava"
)

type options struct {
	cfg     config.Config
	verbose bool
}

func newRootCmd(cfg config.Config) *cobra.Command {
	opts := &options{cfg: cfg}

	root := &cobra.Command{
		Use:           "activityctl",
		Short:         "Inspect and replay activity webhook processing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfg.StoreDSN, "store-dsn", cfg.StoreDSN, "dedup store DSN (postgres://... or sqlite://path)")
	flags.StringVar(&opts.cfg.StravaAPIURL, "api-url", cfg.StravaAPIURL, "activity API base URL")
	flags.DurationVar(&opts.cfg.StravaTimeout, "timeout", cfg.StravaTimeout, "activity API request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline steps to stderr")

	root.AddCommand(
		newEvaluateCmd(opts),
		newStatusCmd(opts),
		newProcessCmd(opts),
	)
	return root
}

func newEvaluateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <activity-id>",
		Short: "Fetch an activity and print the filter decision without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseActivityID(args[0])
			if err != nil {
				return err
			}
			processor, err := opts.processor(cmd, nil)
			if err != nil {
				return err
			}

			activity, decision, err := processor.Preview(cmd.Context(), activityID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "activity %d %q type=%s start=%s\n", activity.ID, activity.Name, activity.Type, activity.StartDateLocal)
			if decision.Accept {
				fmt.Fprintln(out, "decision: match")
			} else {
				fmt.Fprintf(out, "decision: skip (%s)\n", decision.Reason)
			}
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <activity-id>",
		Short: "Report whether an activity is recorded in the dedup store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseActivityID(args[0])
			if err != nil {
				return err
			}
			store, err := persistence.Open(cmd.Context(), opts.cfg.StoreDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			row, err := domain.NewLedger(store).Get(cmd.Context(), activityID)
			out := cmd.OutOrStdout()
			switch {
			case errors.Is(err, domain.ErrProcessedNotFound):
				fmt.Fprintf(out, "activity %d: not processed\n", activityID)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "activity %d: processed at %s\n", activityID, row.ProcessedAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newProcessCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "process <activity-id>",
		Short: "Run the full pipeline for one activity and wait for the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseActivityID(args[0])
			if err != nil {
				return err
			}
			store, err := persistence.Open(cmd.Context(), opts.cfg.StoreDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			processor, err := opts.processor(cmd, store)
			if err != nil {
				return err
			}
			result, err := processor.Process(cmd.Context(), activityID)
			out := cmd.OutOrStdout()
			if result.Reason != "" {
				fmt.Fprintf(out, "activity %d: %s (%s)\n", activityID, result.Outcome, result.Reason)
			} else {
				fmt.Fprintf(out, "activity %d: %s\n", activityID, result.Outcome)
			}
			return err
		},
	}
}

// processor builds a pipeline against the configured API. A nil store is only valid for Preview.
func (o *options) processor(cmd *cobra.Command, store domain.ProcessedStore) (*domain.Processor, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	client := strava.NewClient(o.cfg.StravaAPIURL, o.cfg.StravaAccessToken, o.cfg.StravaTimeout)
	return domain.NewProcessor(store, client, domain.WithLogger(o.logger(cmd.ErrOrStderr()))), nil
}

func (o *options) logger(w io.Writer) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func parseActivityID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid activity id %q", raw)
	}
	return id, nil
}
