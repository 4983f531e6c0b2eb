package bot

import (
	"context"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
)

func (d *Dispatcher) openItem(ctx context.Context, ev event, id int64) Response {
	item, err := d.retrieve.Item(ctx, ev.owner, id)
	if err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, false)
		}
		return d.failure(ev, "get_item", err)
	}
	return Response{Replies: []Reply{itemCard(item)}}
}

// changeStatus re-renders the card in place with the new status.
func (d *Dispatcher) changeStatus(ctx context.Context, ev event, id int64, status content.Status) Response {
	item, err := d.retrieve.SetStatus(ctx, ev.owner, id, status)
	if err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, false)
		}
		return d.failure(ev, "set_status", err)
	}
	ev.log.Info("Changed status", logger.Int64("item_id", id), logger.String("status", string(status)))

	card := itemCard(item)
	card.Replace = true
	return Response{Notice: "Status: " + statusLabel(status), Replies: []Reply{card}}
}

// deleteItem removes an item. A dialog still classifying it ends.
func (d *Dispatcher) deleteItem(ctx context.Context, ev event, id int64) Response {
	if err := d.retrieve.Delete(ctx, ev.owner, id); err != nil {
		if itemGone(err) {
			return d.stale(ctx, ev, false)
		}
		return d.failure(ev, "delete_item", err)
	}
	ev.log.Info("Deleted content item", logger.Int64("item_id", id))

	state, err := d.loadState(ctx, ev)
	if err != nil {
		ev.log.Warn("Failed to read session after delete", logger.Error(err))
	} else if pendingItem(state) == id {
		if err := d.setState(ctx, ev, session.Idle{}); err != nil {
			ev.log.Warn("Failed to end dialog of deleted item", logger.Error(err))
		}
	}
	return Response{Notice: deletedText, Replies: []Reply{{Text: deletedText, Replace: true}}}
}

// pendingItem returns the item an intake dialog is classifying, or 0.
func pendingItem(state session.State) int64 {
	switch st := state.(type) {
	case session.AwaitingContentType:
		return st.ItemID
	case session.AwaitingTag:
		return st.ItemID
	}
	return 0
}
