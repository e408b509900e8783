package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream new direct messages until interrupted",
		Args:  cobra.NoArgs,
		RunE:  withSession(opts, runWatch),
	}
	cmd.Flags().Duration("interval", 0, "poll interval (default from config)")
	cmd.Flags().Bool("no-presence", false, "do not report yourself online")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	cfg := a.messengerConfig()
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		cfg.MessagesInterval = d
	}
	in := messenger.NewInbox(a.client, a.session, a.flags, a.sink(), cfg)
	if err := in.Start(ctx); err != nil {
		return err
	}
	defer in.Stop()

	if noPresence, _ := cmd.Flags().GetBool("no-presence"); !noPresence && cfg.PingInterval > 0 {
		hb := messenger.NewHeartbeat(a.client, cfg.PingInterval)
		if err := hb.Start(ctx); err == nil {
			defer hb.Stop()
		}
	}

	self := in.Self()
	seen := make(map[models.ID]struct{})
	primed := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-in.Updates():
			if !ok {
				return nil
			}
		}

		for _, m := range in.Messages() {
			if _, ok := seen[m.ID]; ok || m.Pending {
				continue
			}
			seen[m.ID] = struct{}{}
			if !primed || m.SenderEmail == self {
				continue
			}
			if a.json {
				if err := writeJSON(a.out, m); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(a.out, "%s  %s: %s\n", m.Time().Local().Format(time.DateTime), m.SenderEmail, messageText(m.Content))
		}
		primed = true
	}
}
