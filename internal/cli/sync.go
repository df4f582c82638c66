package cli

import (
	"fmt"

	"github.com/Sternrassler/posts-sync/pkg/batch"
	"github.com/spf13/cobra"
)

type syncOptions struct {
	Resume       string
	ItemsPerStep int
	Quiet        bool
}

// NewSyncCmd runs a sync job to completion.
func NewSyncCmd(root *rootOptions) *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync every paint can into the sink",
		Long: `Start a new sync job, or resume an existing one with --resume, and run
it in small checkpointed batches until every listed item has been handled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Resume, "resume", "", "Resume the job with this id")
	cmd.Flags().IntVarP(&opts.ItemsPerStep, "items-per-step", "n", 0, "Items per batch invocation (overrides config)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not render a progress bar")

	return cmd
}

func runSync(cmd *cobra.Command, root *rootOptions, opts *syncOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if opts.ItemsPerStep > 0 {
		cfg.Batch.ItemsPerStep = opts.ItemsPerStep
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	jobID := opts.Resume
	if jobID == "" {
		jobID, err = a.driver.Start(ctx)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (job %s)\n", batch.Title, jobID)

	var reporter batch.Reporter
	progress := newJobProgress(cmd.ErrOrStderr())
	if !opts.Quiet {
		reporter = progress
	}

	cp, runErr := a.driver.Run(ctx, jobID, reporter)
	progress.Finish()

	if runErr != nil && batch.IsNotFound(runErr) {
		return fmt.Errorf("job %s not found", jobID)
	}

	fmt.Fprintln(out, batch.Summary(cp, runErr))
	if cp != nil && cp.Errors > 0 {
		fmt.Fprintf(out, "%d items could not be synced.\n", cp.Errors)
	}
	if cp != nil && cp.InitError != "" {
		fmt.Fprintf(out, "Listing unavailable: %s\n", cp.InitError)
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", batch.ErrorMessage, runErr)
	}
	return nil
}
