package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/Sternrassler/posts-sync/pkg/migrate"
	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/spf13/cobra"
)

type migrateOptions struct {
	Fields bool
	Quiet  bool
}

// NewMigrateCmd runs a one-pass bulk import without job checkpoints.
func NewMigrateCmd(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import the whole listing in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Fields, "fields", false, "Print the source fields and exit")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not render a progress bar")

	return cmd
}

func runMigrate(cmd *cobra.Command, root *rootOptions, opts *migrateOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.Fields {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, f := range record.Fields() {
			fmt.Fprintf(tw, "%s\t%s\n", f.Key, f.Description)
		}
		return tw.Flush()
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	src := a.source()

	var progress migrate.ProgressFunc
	if !opts.Quiet {
		bar := newBar(cmd.ErrOrStderr(), 0, "Importing")
		progress = func(done, total int) {
			if done == 1 {
				bar.ChangeMax(total)
			}
			bar.Set(done)
		}
		defer func() {
			bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())
		}()
	}

	summary, err := migrate.Run(ctx, src, a.updater, progress)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d of %d records (%d skipped, %d failed).\n",
		summary.Processed, summary.Total, summary.Skipped, summary.Failed)
	return nil
}
