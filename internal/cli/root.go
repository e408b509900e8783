// Package cli implements the wirewave command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// options holds the persistent flags.
type options struct {
	configFile string
	envFile    string
	apiURL     string
	storePath  string
	logLevel   string
	logFormat  string
	jsonOut    bool
}

// Execute runs the root command.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "wirewave",
		Short:         "Terminal client for the WireWave messenger",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hasTTY() {
				return cmd.Help()
			}
			return withApp(opts, runTUI)(cmd, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ~/.config/wirewave/config.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment (empty disables)")
	flags.StringVar(&opts.apiURL, "api-url", "", "API base URL")
	flags.StringVar(&opts.storePath, "store", "", "local database path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON output")

	cmd.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newChatsCmd(opts),
		newReadCmd(opts),
		newSendCmd(opts),
		newBroadcastCmd(opts),
		newDeleteCmd(opts),
		newArchiveCmd(opts),
		newStarCmd(opts),
		newWatchCmd(opts),
		newLocationCmd(opts),
		newGroupsCmd(opts),
		newProfileCmd(opts),
		newUsersCmd(opts),
		newPresenceCmd(opts),
		newAICmd(opts),
		newHealthCmd(opts),
		newAccountCmd(opts),
		newTUICmd(opts),
	)
	return cmd
}
