package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigFile string
}

// NewRootCmd builds the posts-sync command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "posts-sync",
		Short: "posts-sync - import paint cans from a paginated REST API",
		Long: `posts-sync walks a paginated REST listing item by item and upserts every
record into a local store. Syncs run as resumable jobs whose progress is
checkpointed after every small batch.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to config file (default: ./posts-sync.yaml)")

	rootCmd.AddCommand(
		NewSyncCmd(opts),
		NewMigrateCmd(opts),
		NewServeCmd(opts),
		NewStatusCmd(opts),
	)

	return rootCmd
}
