// Package session keeps the per-owner conversation state of the intake and
// tag-filter dialogs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownState is returned when a stored state cannot be decoded.
var ErrUnknownState = errors.New("unknown session state")

// State is one of Idle, AwaitingContentType, AwaitingTag or AwaitingTagFilter.
type State interface {
	isState()
}

// Idle means no dialog is in progress.
type Idle struct{}

// AwaitingContentType follows the creation of an item; the owner is asked
// whether it is text or video.
type AwaitingContentType struct {
	ItemID int64
}

// AwaitingTag shows the tag picker for ItemID. With AwaitingNewTagName set the
// next plain message is taken as the name of a new tag.
type AwaitingTag struct {
	ItemID             int64
	AwaitingNewTagName bool
	Page               int
}

// AwaitingTagFilter collects the tags of a listing filter.
type AwaitingTagFilter struct {
	Selected []int64
	Page     int
}

func (Idle) isState()                {}
func (AwaitingContentType) isState() {}
func (AwaitingTag) isState()         {}
func (AwaitingTagFilter) isState()   {}

// Store holds one State per owner. Get returns Idle for owners without state.
type Store interface {
	Get(ctx context.Context, owner int64) (State, error)
	Set(ctx context.Context, owner int64, state State) error
	Clear(ctx context.Context, owner int64) error
}

const (
	kindIdle              = "idle"
	kindAwaitingType      = "awaiting_content_type"
	kindAwaitingTag       = "awaiting_tag"
	kindAwaitingTagFilter = "awaiting_tag_filter"
)

// Name returns a stable label for the state, used in logs and metrics.
func Name(s State) string {
	switch s.(type) {
	case AwaitingContentType:
		return kindAwaitingType
	case AwaitingTag:
		return kindAwaitingTag
	case AwaitingTagFilter:
		return kindAwaitingTagFilter
	default:
		return kindIdle
	}
}

type record struct {
	Kind               string  `json:"kind"`
	ItemID             int64   `json:"item_id,omitempty"`
	AwaitingNewTagName bool    `json:"awaiting_new_tag_name,omitempty"`
	Page               int     `json:"page,omitempty"`
	Selected           []int64 `json:"selected,omitempty"`
}

// Encode serialises a state for an external store.
func Encode(s State) ([]byte, error) {
	rec := record{Kind: Name(s)}
	switch v := s.(type) {
	case AwaitingContentType:
		rec.ItemID = v.ItemID
	case AwaitingTag:
		rec.ItemID = v.ItemID
		rec.AwaitingNewTagName = v.AwaitingNewTagName
		rec.Page = v.Page
	case AwaitingTagFilter:
		rec.Selected = v.Selected
		rec.Page = v.Page
	}
	return json.Marshal(rec)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (State, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownState, err)
	}

	switch rec.Kind {
	case kindIdle:
		return Idle{}, nil
	case kindAwaitingType:
		return AwaitingContentType{ItemID: rec.ItemID}, nil
	case kindAwaitingTag:
		return AwaitingTag{ItemID: rec.ItemID, AwaitingNewTagName: rec.AwaitingNewTagName, Page: rec.Page}, nil
	case kindAwaitingTagFilter:
		return AwaitingTagFilter{Selected: rec.Selected, Page: rec.Page}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, rec.Kind)
	}
}

func clone(s State) State {
	if f, ok := s.(AwaitingTagFilter); ok {
		f.Selected = append([]int64(nil), f.Selected...)
		return f
	}
	return s
}
