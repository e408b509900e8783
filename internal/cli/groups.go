package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

func newGroupsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group", "g"},
		Short:   "Manage group chats",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List your groups",
			Args:  cobra.NoArgs,
			RunE:  withSession(opts, runGroupsList),
		},
		&cobra.Command{
			Use:   "create <name> [members...]",
			Short: "Create a group",
			Args:  cobra.MinimumNArgs(1),
			RunE:  withSession(opts, runGroupsCreate),
		},
		&cobra.Command{
			Use:   "show <group>",
			Short: "Show group details and members",
			Args:  cobra.ExactArgs(1),
			RunE:  withSession(opts, runGroupsShow),
		},
		groupAction(opts, "rename <group> <name>", "Rename a group", cobra.MinimumNArgs(2),
			func(ctx context.Context, chat *messenger.GroupChat, args []string) error {
				return chat.Rename(ctx, strings.Join(args, " "))
			}),
		groupAction(opts, "add <group> <email>", "Add a member", cobra.ExactArgs(2),
			func(ctx context.Context, chat *messenger.GroupChat, args []string) error {
				return chat.AddMember(ctx, args[0])
			}),
		groupAction(opts, "remove <group> <email>", "Remove a member", cobra.ExactArgs(2),
			func(ctx context.Context, chat *messenger.GroupChat, args []string) error {
				return chat.RemoveMember(ctx, strings.TrimSpace(args[0]))
			}),
		groupAction(opts, "promote <group> <email>", "Make a member admin", cobra.ExactArgs(2),
			func(ctx context.Context, chat *messenger.GroupChat, args []string) error {
				return chat.SetAdmin(ctx, strings.TrimSpace(args[0]), true)
			}),
		groupAction(opts, "demote <group> <email>", "Revoke a member's admin role", cobra.ExactArgs(2),
			func(ctx context.Context, chat *messenger.GroupChat, args []string) error {
				return chat.SetAdmin(ctx, strings.TrimSpace(args[0]), false)
			}),
		groupAction(opts, "leave <group>", "Leave a group", cobra.ExactArgs(1),
			func(ctx context.Context, chat *messenger.GroupChat, _ []string) error {
				return chat.Leave(ctx)
			}),
		groupAction(opts, "delete <group>", "Delete a group you own", cobra.ExactArgs(1),
			func(ctx context.Context, chat *messenger.GroupChat, _ []string) error {
				return chat.Delete(ctx)
			}),
		&cobra.Command{
			Use:   "send <group> <message>",
			Short: "Post to a group",
			Args:  cobra.MinimumNArgs(2),
			RunE:  withSession(opts, runGroupsSend),
		},
		&cobra.Command{
			Use:   "messages <group>",
			Short: "Show a group's messages",
			Args:  cobra.ExactArgs(1),
			RunE:  withSession(opts, runGroupsMessages),
		},
	)
	return cmd
}

// openGroup resolves a group by id or case-insensitive name and opens it.
func openGroup(ctx context.Context, a *app, ref string) (*messenger.GroupChat, error) {
	groups := a.groups()
	if err := groups.Refresh(ctx); err != nil {
		return nil, exitFor(err, "failed to load groups")
	}
	ref = strings.TrimSpace(strings.TrimPrefix(ref, "#"))
	if g, ok := groups.Find(models.ID(ref)); ok {
		return groups.Open(ctx, g), nil
	}
	for _, g := range groups.List() {
		if strings.EqualFold(g.Name, ref) {
			return groups.Open(ctx, g), nil
		}
	}
	return nil, Exitf(ExitCodeFailure, "group %q not found", ref)
}

// groupAction builds a subcommand that runs fn on the group named by the
// first argument. fn receives the remaining arguments.
func groupAction(opts *options, use, short string, args cobra.PositionalArgs, fn func(context.Context, *messenger.GroupChat, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			chat, err := openGroup(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := fn(ctx, chat, args[1:]); err != nil {
				return reported(err)
			}
			if !a.json {
				fmt.Fprintln(a.out, "Done")
			}
			return nil
		}),
	}
}

func runGroupsList(cmd *cobra.Command, _ []string, a *app) error {
	groups := a.groups()
	if err := groups.Refresh(cmd.Context()); err != nil {
		return exitFor(err, "failed to load groups")
	}
	list := groups.List()
	if a.json {
		return writeJSON(a.out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No groups")
		return nil
	}
	self := a.session.Email()
	rows := make([][]string, 0, len(list))
	for _, g := range list {
		rows = append(rows, []string{
			string(g.ID),
			g.DisplayName(),
			g.OwnerEmail,
			formatYesNo(g.OwnerEmail == self),
		})
	}
	return writeTable(a.out, []string{"ID", "NAME", "OWNER", "MINE"}, rows)
}

func runGroupsCreate(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	name := strings.TrimSpace(args[0])
	chat, err := a.groups().Create(ctx, name, strings.Join(args[1:], " "))
	if err != nil {
		return reported(err)
	}
	if chat == nil {
		fmt.Fprintln(a.out, "Group created")
		return nil
	}
	g := chat.Group()
	if a.json {
		return writeJSON(a.out, g)
	}
	fmt.Fprintf(a.out, "Created %s (#%s)\n", g.DisplayName(), g.ID)
	return nil
}

type memberRow struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func runGroupsShow(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	chat, err := openGroup(ctx, a, args[0])
	if err != nil {
		return err
	}
	detail, err := chat.Info(ctx)
	if err != nil {
		return exitFor(err, "failed to load group")
	}

	members := make([]memberRow, 0, len(detail.Members))
	for _, m := range detail.Members {
		members = append(members, memberRow{Email: m.MemberEmail, Role: memberRole(detail, m)})
	}
	if a.json {
		return writeJSON(a.out, map[string]any{"group": detail.Group, "members": members})
	}

	fmt.Fprintf(a.out, "%s (#%s)\nowner: %s\n", chat.Group().DisplayName(), chat.ID(), detail.Group.OwnerEmail)
	if t := models.ParseTime(detail.Group.CreatedAt); !t.IsZero() {
		fmt.Fprintf(a.out, "created: %s\n", relative(t))
	}
	fmt.Fprintln(a.out)
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{m.Email, m.Role})
	}
	return writeTable(a.out, []string{"MEMBER", "ROLE"}, rows)
}

func memberRole(d models.GroupDetail, m models.Member) string {
	switch {
	case d.IsOwner(m.MemberEmail):
		return "owner"
	case bool(m.IsAdmin):
		return "admin"
	default:
		return "member"
	}
}

func runGroupsSend(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	chat, err := openGroup(ctx, a, args[0])
	if err != nil {
		return err
	}
	sent, err := chat.Send(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return reported(err)
	}
	if !sent {
		return Exitf(ExitCodeUsage, "message is empty")
	}
	if !a.json {
		fmt.Fprintf(a.out, "Sent to %s\n", chat.Group().DisplayName())
	}
	return nil
}

func runGroupsMessages(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	chat, err := openGroup(ctx, a, args[0])
	if err != nil {
		return err
	}
	if err := chat.Refresh(ctx); err != nil {
		return exitFor(err, "failed to load messages")
	}
	msgs := chat.Messages()
	if a.json {
		return writeJSON(a.out, msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return nil
	}
	self := a.session.Email()
	now := time.Now()
	for _, day := range chat.Days() {
		fmt.Fprintf(a.out, "── %s ──\n", day.Label(now))
		for _, m := range day.Entries {
			who := m.SenderEmail
			if m.Mine(self) {
				who = "you"
			}
			fmt.Fprintf(a.out, "%s  %s: %s\n", clock(m.Time()), who, messageText(m.Content))
		}
	}
	return nil
}
