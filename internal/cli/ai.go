package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/messenger"
)

func newAICmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "AI writing helpers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enhance <text>",
			Short: "Rewrite a draft",
			Args:  cobra.MinimumNArgs(1),
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
				out, err := messenger.Enhance(cmd.Context(), a.client, a.sink(), strings.Join(args, " "))
				if err != nil {
					return reported(err)
				}
				fmt.Fprintln(a.out, out)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "assist <question>",
			Short: "Ask the assistant",
			Args:  cobra.MinimumNArgs(1),
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
				query := strings.TrimSpace(strings.Join(args, " "))
				if query == "" {
					return Exitf(ExitCodeUsage, "question is empty")
				}
				out, err := a.client.Assist(cmd.Context(), query)
				if err != nil {
					return exitFor(err, "assistant failed")
				}
				fmt.Fprintln(a.out, out)
				return nil
			}),
		},
	)
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			acct := messenger.NewAccount(a.client, a.session, a.sink())
			status, err := acct.Health(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCodeOffline, Err: err, Printed: true}
			}
			if a.json {
				return writeJSON(a.out, map[string]string{"status": status, "api": a.client.BaseURL()})
			}
			return nil
		}),
	}
}
