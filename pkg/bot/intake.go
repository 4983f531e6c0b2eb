package bot

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// save stores a message as new material and starts its intake dialog. Any
// dialog in progress is abandoned; its item stays as it is.
func (d *Dispatcher) save(ctx context.Context, ev event, text string, att Attachment) Response {
	if strings.TrimSpace(text) == "" {
		return textReply(emptyMessageText)
	}

	source := att.Source
	if source == "" {
		source = SourceDirect
	}

	id, err := d.store.CreateItem(ctx, content.NewItem{
		Owner:           ev.owner,
		Content:         text,
		Source:          source,
		OriginMessageID: att.OriginMessageID,
		OriginChatID:    att.OriginChatID,
	})
	if err != nil {
		return d.failure(ev, "create_item", err)
	}

	fields := []logger.Field{logger.Int64("item_id", id), logger.String("source", source)}
	if u := urlPattern.FindString(text); u != "" {
		fields = append(fields, logger.String("url", u))
	}
	ev.log.Info("Saved content item", fields...)

	if err := d.setState(ctx, ev, session.AwaitingContentType{ItemID: id}); err != nil {
		return d.failure(ev, "session_set", err)
	}
	return Response{Replies: []Reply{{Text: askContentTypeText, Buttons: contentTypeButtons()}}}
}

func (d *Dispatcher) chooseContentType(ctx context.Context, ev event, state session.State, t content.Type) Response {
	st, ok := state.(session.AwaitingContentType)
	if !ok {
		return d.stale(ctx, ev, false)
	}

	if err := d.store.SetContentType(ctx, st.ItemID, t); err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, true)
		}
		return d.failure(ev, "set_content_type", err)
	}

	notice := "Type: " + typeLabel(t)
	return d.showTagPicker(ctx, ev, session.AwaitingTag{ItemID: st.ItemID}, notice, true)
}

// showTagPicker moves the dialog to st and renders its tag picker.
func (d *Dispatcher) showTagPicker(ctx context.Context, ev event, st session.AwaitingTag, notice string, replace bool) Response {
	item, err := d.store.GetItem(ctx, st.ItemID)
	if err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, true)
		}
		return d.failure(ev, "get_item", err)
	}
	tags, err := d.store.ListTags(ctx, ev.owner)
	if err != nil {
		return d.failure(ev, "list_tags", err)
	}

	st.Page = clampTagPage(len(tags), st.Page)
	if err := d.setState(ctx, ev, st); err != nil {
		return d.failure(ev, "session_set", err)
	}

	picker := tagPicker(tags, item.Tags, st.Page)
	picker.Replace = replace
	resp := Response{Notice: notice, Replies: []Reply{picker}}
	if !replace && notice != "" {
		resp.Replies = append([]Reply{{Text: notice}}, resp.Replies...)
	}
	return resp
}

func (d *Dispatcher) chooseTag(ctx context.Context, ev event, state session.State, tagID int64) Response {
	st, ok := state.(session.AwaitingTag)
	if !ok {
		return d.stale(ctx, ev, false)
	}

	tag, err := d.store.GetTag(ctx, tagID)
	if err != nil {
		if errors.Is(err, content.ErrTagNotFound) {
			return d.stale(ctx, ev, false)
		}
		return d.failure(ev, "get_tag", err)
	}
	if tag.Owner != ev.owner {
		return d.stale(ctx, ev, false)
	}

	if err := d.store.LinkTag(ctx, st.ItemID, tagID); err != nil {
		switch {
		case itemGone(err):
			return d.stale(ctx, ev, true)
		case errors.Is(err, content.ErrOwnerMismatch), errors.Is(err, content.ErrTagNotFound):
			return d.stale(ctx, ev, false)
		}
		return d.failure(ev, "link_tag", err)
	}
	ev.log.Info("Tagged content item", logger.Int64("item_id", st.ItemID), logger.String("tag", tag.Name))

	st.AwaitingNewTagName = false
	return d.showTagPicker(ctx, ev, st, "🎳 Tag added: "+tag.Name, true)
}

func (d *Dispatcher) requestNewTag(ctx context.Context, ev event, state session.State) Response {
	switch st := state.(type) {
	case session.AwaitingTag:
		if _, err := d.store.GetItem(ctx, st.ItemID); err != nil {
			if itemGone(err) {
				return d.stale(ctx, ev, true)
			}
			return d.failure(ev, "get_item", err)
		}
		st.AwaitingNewTagName = true
		if err := d.setState(ctx, ev, st); err != nil {
			return d.failure(ev, "session_set", err)
		}
		return textReply(askTagNameText)
	case session.AwaitingTagFilter:
		return Response{Notice: newTagInFilterNotice}
	default:
		return d.stale(ctx, ev, false)
	}
}

// addNewTag consumes the text the dialog asked for as a tag name.
func (d *Dispatcher) addNewTag(ctx context.Context, ev event, st session.AwaitingTag, name string) Response {
	if name == "" {
		return textReply(emptyTagNameText)
	}

	if _, err := d.store.GetItem(ctx, st.ItemID); err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, true)
		}
		return d.failure(ev, "get_item", err)
	}

	tagID, err := d.store.FindOrCreateTag(ctx, ev.owner, name)
	if err != nil {
		if errors.Is(err, content.ErrEmptyTagName) {
			return textReply(emptyTagNameText)
		}
		return d.failure(ev, "find_or_create_tag", err)
	}
	if err := d.store.LinkTag(ctx, st.ItemID, tagID); err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, true)
		}
		return d.failure(ev, "link_tag", err)
	}
	ev.log.Info("Tagged content item", logger.Int64("item_id", st.ItemID), logger.String("tag", name))

	st.AwaitingNewTagName = false
	return d.showTagPicker(ctx, ev, st, "🎳 Tag added: "+name, false)
}

// finishTagging ends the intake dialog. The item keeps whatever type and
// tags it received.
func (d *Dispatcher) finishTagging(ctx context.Context, ev event, state session.State) Response {
	st, ok := state.(session.AwaitingTag)
	if !ok {
		return d.stale(ctx, ev, false)
	}

	if _, err := d.store.GetItem(ctx, st.ItemID); err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, true)
		}
		return d.failure(ev, "get_item", err)
	}

	if err := d.setState(ctx, ev, session.Idle{}); err != nil {
		return d.failure(ev, "session_set", err)
	}
	return replaceReply(savedText)
}

func (d *Dispatcher) turnTagPage(ctx context.Context, ev event, state session.State, page int) Response {
	switch st := state.(type) {
	case session.AwaitingTag:
		st.Page = page
		return d.showTagPicker(ctx, ev, st, "", true)
	case session.AwaitingTagFilter:
		st.Page = page
		return d.showFilterPicker(ctx, ev, st, "", true)
	default:
		return d.stale(ctx, ev, false)
	}
}
