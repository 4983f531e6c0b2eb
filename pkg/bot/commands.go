package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
)

// command runs a slash command. Commands leave the intake dialog alone
// except /bytags, which replaces it, and /cancel.
func (d *Dispatcher) command(ctx context.Context, ev event, text string) Response {
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	// Group chats address commands as /last@SomeBot.
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	args := fields[1:]
	ev.log.Debug("Command received", logger.String("command", name))

	switch name {
	case "/start", "/help":
		return Response{Replies: []Reply{{Text: helpText, Menu: mainMenu}}}
	case "/last":
		t, ok := typeArgument(args)
		if !ok {
			return textReply(badTypeReply(name, args))
		}
		item, err := d.retrieve.Last(ctx, ev.owner, content.Filter{Type: t})
		if err != nil {
			return d.failure(ev, "get_last", err)
		}
		if item == nil {
			return textReply(noMaterialsText)
		}
		return Response{Replies: []Reply{itemCard(*item)}}
	case "/random":
		t, ok := typeArgument(args)
		if !ok {
			return textReply(badTypeReply(name, args))
		}
		item, err := d.retrieve.RandomUnread(ctx, ev.owner, t)
		if err != nil {
			return d.failure(ev, "get_random_unread", err)
		}
		if item == nil {
			return textReply(noUnreadText)
		}
		return Response{Replies: []Reply{itemCard(*item)}}
	case "/all":
		t, ok := typeArgument(args)
		if !ok {
			return textReply(badTypeReply(name, args))
		}
		return d.showListing(ctx, ev, PageRequest{Kind: PageList, Type: t}, false)
	case "/bytags":
		return d.startTagFilter(ctx, ev)
	case "/stats":
		stats, err := d.retrieve.Statistics(ctx, ev.owner)
		if err != nil {
			return d.failure(ev, "get_statistics", err)
		}
		return textReply(statisticsText(stats))
	case "/cancel":
		return d.cancel(ctx, ev)
	default:
		return textReply(unknownCommandText)
	}
}

// typeArgument reads the optional text|video argument of a retrieval command.
func typeArgument(args []string) (content.Type, bool) {
	if len(args) == 0 {
		return content.TypeNone, true
	}
	t, err := content.ParseType(strings.ToLower(args[0]))
	if err != nil || t == content.TypeNone || len(args) > 1 {
		return content.TypeNone, false
	}
	return t, true
}

func badTypeReply(command string, args []string) string {
	return fmt.Sprintf("Unknown type %q. Use %s, %s text or %s video.", strings.Join(args, " "), command, command, command)
}

func (d *Dispatcher) cancel(ctx context.Context, ev event) Response {
	state, err := d.loadState(ctx, ev)
	if err != nil {
		return d.failure(ev, "session_get", err)
	}
	if _, idle := state.(session.Idle); idle {
		return textReply(nothingToCancelText)
	}
	if err := d.setState(ctx, ev, session.Idle{}); err != nil {
		return d.failure(ev, "session_set", err)
	}
	return textReply(cancelledText)
}
