package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Watch captured conversations for participants outside a user's whitelist",
		Long: `sentinel evaluates captured messaging-app conversation records against the
owning user's whitelist of approved contacts, persists an alert for every
record that names someone not on the list, and notifies the configured
destination.

Commands:
  sentinel monitor                       # consume the change feed and serve the HTTP API
  sentinel evaluate --whitelist Mom ...  # evaluate one record without any I/O
  sentinel submit --user u1 snap.json    # publish a captured screen snapshot
  sentinel users import users.yml        # load whitelists into the store`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to sentinel.yml")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(
		newMonitorCmd(opts),
		newEvaluateCmd(),
		newSubmitCmd(opts),
		newUsersCmd(opts),
	)
	return cmd
}
