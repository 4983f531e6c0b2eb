package bot

import (
	"context"
	"errors"
	"slices"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
)

// startTagFilter opens the tag-filter dialog, replacing any dialog in progress.
func (d *Dispatcher) startTagFilter(ctx context.Context, ev event) Response {
	tags, err := d.store.ListTags(ctx, ev.owner)
	if err != nil {
		return d.failure(ev, "list_tags", err)
	}
	if len(tags) == 0 {
		if err := d.setState(ctx, ev, session.Idle{}); err != nil {
			return d.failure(ev, "session_set", err)
		}
		return textReply(noTagsText)
	}

	st := session.AwaitingTagFilter{}
	if err := d.setState(ctx, ev, st); err != nil {
		return d.failure(ev, "session_set", err)
	}
	return Response{Replies: []Reply{filterPicker(tags, st.Selected, st.Page)}}
}

// showFilterPicker moves the dialog to st and renders its keyboard.
func (d *Dispatcher) showFilterPicker(ctx context.Context, ev event, st session.AwaitingTagFilter, notice string, replace bool) Response {
	tags, err := d.store.ListTags(ctx, ev.owner)
	if err != nil {
		return d.failure(ev, "list_tags", err)
	}

	st.Page = clampTagPage(len(tags), st.Page)
	if err := d.setState(ctx, ev, st); err != nil {
		return d.failure(ev, "session_set", err)
	}

	picker := filterPicker(tags, st.Selected, st.Page)
	picker.Replace = replace
	return Response{Notice: notice, Replies: []Reply{picker}}
}

func (d *Dispatcher) toggleFilterTag(ctx context.Context, ev event, state session.State, tagID int64) Response {
	st, ok := state.(session.AwaitingTagFilter)
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

	if i := slices.Index(st.Selected, tagID); i >= 0 {
		st.Selected = slices.Delete(slices.Clone(st.Selected), i, i+1)
	} else {
		if len(st.Selected) >= MaxFilterTags {
			return Response{Notice: tooManyTagsNotice}
		}
		st.Selected = append(slices.Clone(st.Selected), tagID)
	}
	return d.showFilterPicker(ctx, ev, st, "", true)
}

func (d *Dispatcher) applyFilter(ctx context.Context, ev event, state session.State, rel content.Relation) Response {
	st, ok := state.(session.AwaitingTagFilter)
	if !ok {
		return d.stale(ctx, ev, false)
	}
	if len(st.Selected) == 0 {
		return Response{Notice: selectTagNotice}
	}

	if err := d.setState(ctx, ev, session.Idle{}); err != nil {
		return d.failure(ev, "session_set", err)
	}
	ev.log.Info("Filtering by tags", logger.Int64s("tag_ids", st.Selected), logger.String("relation", string(rel)))

	req := PageRequest{Kind: PageByTags, Relation: rel, TagIDs: st.Selected}
	return d.showTagListing(ctx, ev, req, true)
}

func (d *Dispatcher) cancelFilter(ctx context.Context, ev event, state session.State) Response {
	if _, ok := state.(session.AwaitingTagFilter); !ok {
		return d.stale(ctx, ev, false)
	}
	if err := d.setState(ctx, ev, session.Idle{}); err != nil {
		return d.failure(ev, "session_set", err)
	}
	return replaceReply(filterCancelledText)
}

// showListing renders one page of /all.
func (d *Dispatcher) showListing(ctx context.Context, ev event, req PageRequest, replace bool) Response {
	page, err := d.retrieve.List(ctx, ev.owner, req.Page, content.Filter{Type: req.Type})
	if err != nil {
		return d.failure(ev, "list_items", err)
	}

	title := "Your materials"
	if req.Type != content.TypeNone {
		title = "Your " + string(req.Type) + " materials"
	}
	return listingResponse(page, req, title, noMaterialsText, replace)
}

// showTagListing renders one page of a tag-filtered listing.
func (d *Dispatcher) showTagListing(ctx context.Context, ev event, req PageRequest, replace bool) Response {
	page, err := d.retrieve.ByTags(ctx, ev.owner, req.TagIDs, req.Relation, req.Page)
	if err != nil {
		return d.failure(ev, "list_items_by_tags", err)
	}
	tags, err := d.store.ListTags(ctx, ev.owner)
	if err != nil {
		return d.failure(ev, "list_tags", err)
	}

	chosen := make(map[int64]bool, len(req.TagIDs))
	for _, id := range req.TagIDs {
		chosen[id] = true
	}
	joiner := " and "
	if req.Relation == content.RelationOr {
		joiner = " or "
	}
	title := "Materials tagged"
	for i, name := range selectedNames(tags, chosen) {
		if i > 0 {
			title += joiner
		} else {
			title += " "
		}
		title += name
	}
	return listingResponse(page, req, title, noMatchesText, replace)
}

func listingResponse(page Page, req PageRequest, title, emptyText string, replace bool) Response {
	if page.Empty() {
		text := emptyText
		if page.PastEnd() {
			text = pastEndText
		}
		return Response{Replies: []Reply{{Text: text, Replace: replace}}}
	}

	r := pageReply(title, page, req)
	r.Replace = replace
	return Response{Replies: []Reply{r}}
}
