package cli

import (
	"fmt"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/batch"
	"github.com/spf13/cobra"
)

// NewStatusCmd prints the checkpoint of a job.
func NewStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the progress of a sync job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root, args[0])
		},
	}
}

func runStatus(cmd *cobra.Command, root *rootOptions, jobID string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	cp, err := a.driver.Status(ctx, jobID)
	if err != nil {
		if batch.IsNotFound(err) {
			return fmt.Errorf("job %s not found", jobID)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", cp.JobID)
	fmt.Fprintf(out, "Progress: %d/%d (%.0f%%)\n", cp.Sandbox.Progress, cp.Sandbox.Max, cp.Finished*100)
	fmt.Fprintf(out, "Message:  %s\n", cp.Message)
	fmt.Fprintf(out, "Synced:   %d\n", len(cp.Results))
	fmt.Fprintf(out, "Errors:   %d\n", cp.Errors)
	fmt.Fprintf(out, "Elapsed:  %s\n", batch.Elapsed(cp).Round(time.Millisecond))
	if cp.Done() {
		fmt.Fprintln(out, batch.Summary(cp, nil))
	}
	return nil
}
