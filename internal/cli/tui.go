package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/logging"
	"github.com/tOgg1/wirewave/internal/tui"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive client",
		Args:  cobra.NoArgs,
		RunE:  withApp(opts, runTUI),
	}
}

// runTUI hands the terminal to the interactive client.
func runTUI(cmd *cobra.Command, _ []string, a *app) error {
	if !hasTTY() {
		return Exitf(ExitCodeUsage, "tui requires a terminal")
	}
	// stderr belongs to the screen while the program runs.
	logFile := a.cfg.Logging.File
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(a.cfg.Storage.Path), "tui.log")
	}
	if f, err := logging.OpenFile(logFile); err == nil {
		defer f.Close()
		logging.Init(logging.Config{
			Level:        a.cfg.Logging.Level,
			Format:       "json",
			Output:       f,
			EnableCaller: a.cfg.Logging.EnableCaller,
		})
	} else {
		logging.Init(logging.Config{Level: "disabled", Output: a.errOut})
	}

	return tui.Run(cmd.Context(), tui.Options{
		Config:    a.cfg,
		Client:    a.client,
		Session:   a.session,
		Flags:     a.flags,
		Messenger: a.messengerConfig(),
	})
}
