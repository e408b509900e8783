package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

func newProfileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View or edit your profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			acct := messenger.NewAccount(a.client, a.session, a.sink())
			p, exists, err := acct.LoadProfile(cmd.Context())
			if err != nil {
				return exitFor(err, "failed to load profile")
			}
			if a.json {
				return writeJSON(a.out, map[string]any{"profile": p, "exists": exists})
			}
			if !exists {
				fmt.Fprintln(a.out, "No profile yet. Set one with `wirewave profile set`.")
				return nil
			}
			writeProfile(a, p)
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update your profile",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			ctx := cmd.Context()
			acct := messenger.NewAccount(a.client, a.session, a.sink())
			current, _, err := acct.LoadProfile(ctx)
			if err != nil {
				return exitFor(err, "failed to load profile")
			}
			for flag, field := range map[string]*string{
				"name":   &current.Name,
				"about":  &current.About,
				"avatar": &current.AvatarURL,
			} {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					*field = strings.TrimSpace(v)
				}
			}
			saved, err := acct.SaveProfile(ctx, current)
			if err != nil {
				return reported(err)
			}
			if a.json {
				return writeJSON(a.out, saved)
			}
			return nil
		}),
	}
	set.Flags().String("name", "", "display name")
	set.Flags().String("about", "", "about text")
	set.Flags().String("avatar", "", "avatar image URL")

	cmd.AddCommand(show, set)
	return cmd
}

func writeProfile(a *app, p models.Profile) {
	rows := [][]string{
		{"email", p.Email},
		{"name", p.Name},
		{"about", p.About},
		{"avatar", p.AvatarURL},
	}
	_ = writeTable(a.out, nil, rows)
}

func newUsersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up other users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "search <email>",
		Short: "Find a user's profile by email",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			email := strings.TrimSpace(args[0])
			if !messenger.RecipientEligible(email) {
				return Exitf(ExitCodeUsage, "%q is not an email address", email)
			}
			profiles := messenger.NewProfiles(a.client)
			p, err := profiles.Lookup(ctx, email)
			if err != nil {
				return exitFor(err, "user not found")
			}
			if a.json {
				return writeJSON(a.out, p)
			}
			if p.Email == "" {
				p.Email = email
			}
			writeProfile(a, p)
			return nil
		}),
	})
	return cmd
}

func newPresenceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Report or query online status",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ping",
			Short: "Mark yourself online",
			Args:  cobra.NoArgs,
			RunE: withSession(opts, func(cmd *cobra.Command, _ []string, a *app) error {
				if err := a.client.Ping(cmd.Context()); err != nil {
					return exitFor(err, "ping failed")
				}
				if !a.json {
					fmt.Fprintln(a.out, "Online")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "get <email>",
			Short: "Show whether a user is online",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
				p, err := a.client.Presence(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return exitFor(err, "presence lookup failed")
				}
				if a.json {
					return writeJSON(a.out, p)
				}
				state := "offline"
				if p.Online {
					state = "online"
				}
				if seen := models.ParseTime(p.LastSeen); !bool(p.Online) && !seen.IsZero() {
					state += ", last seen " + relative(seen)
				}
				fmt.Fprintf(a.out, "%s: %s\n", p.Email, state)
				return nil
			}),
		},
	)
	return cmd
}
