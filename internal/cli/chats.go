package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/wirewave/internal/messenger"
	"github.com/tOgg1/wirewave/internal/models"
)

type chatRow struct {
	Peer     string    `json:"peer"`
	Last     string    `json:"last_message"`
	LastAt   time.Time `json:"last_message_time,omitzero"`
	Unread   int       `json:"unread"`
	Messages int       `json:"messages"`
	Starred  bool      `json:"starred"`
	Archived bool      `json:"archived"`
}

func newChatsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chats",
		Aliases: []string{"ls", "inbox"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE:    withSession(opts, runChats),
	}
	cmd.Flags().Bool("archived", false, "show archived conversations instead")
	cmd.Flags().StringP("search", "s", "", "filter by peer or last message")
	cmd.Flags().Bool("no-starred-first", false, "order by time only")
	return cmd
}

func runChats(cmd *cobra.Command, _ []string, a *app) error {
	in, err := a.loadedInbox(cmd.Context())
	if err != nil {
		return err
	}
	archived, _ := cmd.Flags().GetBool("archived")
	search, _ := cmd.Flags().GetString("search")
	plain, _ := cmd.Flags().GetBool("no-starred-first")
	in.SetShowArchived(archived)
	in.SetSearch(search)
	in.SetStarredFirst(!plain)

	convs := in.Conversations()
	if a.json {
		rows := make([]chatRow, 0, len(convs))
		for _, c := range convs {
			rows = append(rows, chatRow{
				Peer:     c.Peer,
				Last:     c.Last.Content,
				LastAt:   c.LastMessageTime,
				Unread:   c.UnreadCount,
				Messages: c.MessageCount,
				Starred:  c.Starred,
				Archived: c.Archived,
			})
		}
		return writeJSON(a.out, rows)
	}

	if len(convs) == 0 {
		fmt.Fprintln(a.out, "No conversations")
		return nil
	}
	rows := make([][]string, 0, len(convs))
	for _, c := range convs {
		peer := c.Peer
		if c.Starred {
			peer = "★ " + peer
		}
		rows = append(rows, []string{
			peer,
			models.UnreadBadge(c.UnreadCount),
			truncate(preview(c.Last.Content), 48),
			relative(c.LastMessageTime),
		})
	}
	if err := writeTable(a.out, []string{"PEER", "UNREAD", "LAST", "WHEN"}, rows); err != nil {
		return err
	}
	if total := in.UnreadTotal(); total > 0 && !archived {
		fmt.Fprintf(a.out, "\n%d unread\n", total)
	}
	return nil
}

// preview renders a body for a one-line listing.
func preview(body string) string {
	c := models.ParseContent(body)
	switch c.Kind {
	case models.ContentLocation:
		return "📍 Location"
	case models.ContentBroadcast:
		return models.BroadcastMarker + c.Text
	default:
		return c.Text
	}
}

func newReadCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "read <peer>",
		Aliases: []string{"chat", "log"},
		Short:   "Show the conversation with a peer and mark it read",
		Args:    cobra.ExactArgs(1),
		RunE:    withSession(opts, runRead),
	}
	cmd.Flags().Bool("no-mark", false, "do not mark incoming messages read")
	cmd.Flags().StringSlice("mark", nil, "mark only these message ids read")
	return cmd
}

func runRead(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	in, err := a.loadedInbox(ctx)
	if err != nil {
		return err
	}
	chat := in.Chat(strings.TrimSpace(args[0]))

	noMark, _ := cmd.Flags().GetBool("no-mark")
	ids, _ := cmd.Flags().GetStringSlice("mark")
	switch {
	case len(ids) > 0:
		for _, id := range ids {
			chat.Selection().Toggle(models.ID(strings.TrimSpace(id)))
		}
		if _, err := chat.MarkSelectedRead(ctx); err != nil {
			return reported(err)
		}
	case !noMark:
		chat.Observe(ctx)
	}

	thread := chat.Thread()
	if a.json {
		return writeJSON(a.out, thread)
	}
	if len(thread) == 0 {
		fmt.Fprintf(a.out, "No messages with %s\n", chat.Peer())
		return nil
	}
	writeDirectThread(a.out, chat, in.Self())
	return nil
}

func writeDirectThread(out io.Writer, chat *messenger.DirectChat, self string) {
	now := time.Now()
	for _, day := range chat.Days() {
		fmt.Fprintf(out, "── %s ──\n", day.Label(now))
		for _, m := range day.Entries {
			who := m.SenderEmail
			if who == self {
				who = "you"
			}
			status := ""
			switch {
			case m.Pending:
				status = " (sending)"
			case who == "you" && bool(m.Read):
				status = " ✓✓"
			case who == "you":
				status = " ✓"
			}
			fmt.Fprintf(out, "%s  %s: %s%s  [%s]\n", clock(m.Time()), who, messageText(m.Content), status, m.ID)
		}
	}
}

func messageText(body string) string {
	c := models.ParseContent(body)
	switch c.Kind {
	case models.ContentLocation:
		return "📍 " + c.URL
	case models.ContentBroadcast:
		return models.BroadcastMarker + c.Text
	default:
		return c.Text
	}
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04")
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			peer := strings.TrimSpace(args[0])
			text := strings.Join(args[1:], " ")
			if err := models.ValidateDirectMessage(peer, text); err != nil {
				return exitFor(err, "invalid message")
			}
			chat := a.inbox().Chat(peer)
			sent, err := chat.Send(ctx, text)
			if err != nil {
				return reported(err)
			}
			if !sent {
				return Exitf(ExitCodeUsage, "message is empty")
			}
			if !a.json {
				fmt.Fprintf(a.out, "Sent to %s\n", peer)
			}
			return nil
		}),
	}
}

func newLocationCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location <peer> <lat,lng>",
		Short: "Share a location with a peer or group",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			lat, lng, err := models.ParseCoordinates(args[1])
			if err != nil {
				return Exitf(ExitCodeUsage, "%v", err)
			}
			groupID, _ := cmd.Flags().GetBool("group")
			var shared bool
			if groupID {
				chat, err := openGroup(ctx, a, args[0])
				if err != nil {
					return err
				}
				shared, err = chat.ShareLocation(ctx, lat, lng)
				if err != nil {
					return reported(err)
				}
			} else {
				shared, err = a.inbox().Chat(strings.TrimSpace(args[0])).ShareLocation(ctx, lat, lng)
				if err != nil {
					return reported(err)
				}
			}
			if shared && !a.json {
				fmt.Fprintln(a.out, "Location shared:", models.LocationURL(lat, lng))
			}
			return nil
		}),
	}
	cmd.Flags().Bool("group", false, "treat the first argument as a group id")
	return cmd
}

func newBroadcastCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast <message>",
		Short: "Send one message to several contacts",
		Args:  cobra.ArbitraryArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			recipients, _ := cmd.Flags().GetStringSlice("to")
			match, _ := cmd.Flags().GetString("match")
			if match != "" {
				in, err := a.loadedInbox(ctx)
				if err != nil {
					return err
				}
				recipients = append(recipients, messenger.FilterContacts(in.Contacts(), match)...)
			}

			b := messenger.NewBroadcast(a.client, a.sink())
			for _, r := range recipients {
				if r = strings.TrimSpace(r); r != "" && !b.IsSelected(r) {
					b.Toggle(r)
				}
			}
			b.SetDraft(strings.Join(args, " "))
			return reported(b.Send(ctx))
		}),
	}
	cmd.Flags().StringSlice("to", nil, "recipient email (repeatable)")
	cmd.Flags().String("match", "", "add every contact whose address contains this text")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <peer>",
		Short: "Delete a conversation on the server",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			in, err := a.loadedInbox(ctx)
			if err != nil {
				return err
			}
			return reported(in.DeleteConversation(ctx, strings.TrimSpace(args[0])))
		}),
	}
}

func newArchiveCmd(opts *options) *cobra.Command {
	return newFlagCmd(opts, "archive", "Toggle whether a conversation is archived", "archived", "unarchived",
		func(a *app, cmd *cobra.Command, peer string) (bool, error) {
			return a.inbox().ToggleArchive(cmd.Context(), peer)
		})
}

func newStarCmd(opts *options) *cobra.Command {
	return newFlagCmd(opts, "star", "Toggle whether a conversation is starred", "starred", "unstarred",
		func(a *app, cmd *cobra.Command, peer string) (bool, error) {
			return a.inbox().ToggleStar(cmd.Context(), peer)
		})
}

func newFlagCmd(opts *options, use, short, on, off string, toggle func(*app, *cobra.Command, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <peer>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			peer := strings.TrimSpace(args[0])
			set, err := toggle(a, cmd, peer)
			if err != nil {
				return err
			}
			state := off
			if set {
				state = on
			}
			if a.json {
				return writeJSON(a.out, map[string]any{"peer": peer, use: set})
			}
			fmt.Fprintf(a.out, "%s %s\n", peer, state)
			return nil
		}),
	}
}
