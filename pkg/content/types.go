package content

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrItemNotFound    = errors.New("content item not found")
	ErrTagNotFound     = errors.New("tag not found")
	ErrEmptyTagName    = errors.New("tag name is empty")
	ErrOwnerMismatch   = errors.New("tag and content item belong to different owners")
	ErrInvalidType     = errors.New("invalid content type")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidRelation = errors.New("invalid tag relation")
)

// Type classifies a content item. The zero value means the type was never set.
type Type string

const (
	TypeNone  Type = ""
	TypeText  Type = "text"
	TypeVideo Type = "video"
)

// ParseType accepts "text" and "video". An empty string parses to TypeNone.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeNone, TypeText, TypeVideo:
		return Type(s), nil
	default:
		return TypeNone, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Status is the read status of a content item.
type Status string

const (
	StatusUnread    Status = "unread"
	StatusProcessed Status = "processed"
)

// ParseStatus accepts "unread" and "processed".
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnread, StatusProcessed:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Relation selects how a tag set filters items.
type Relation string

const (
	// RelationAnd keeps items carrying every tag of the set.
	RelationAnd Relation = "and"
	// RelationOr keeps items carrying at least one tag of the set.
	RelationOr Relation = "or"
)

// ParseRelation accepts "and" and "or".
func ParseRelation(s string) (Relation, error) {
	switch Relation(s) {
	case RelationAnd, RelationOr:
		return Relation(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRelation, s)
	}
}

// Item is a single saved piece of material.
type Item struct {
	ID              int64      `json:"id"`
	Owner           int64      `json:"owner"`
	Content         string     `json:"content"`
	Source          string     `json:"source"`
	OriginMessageID *int64     `json:"origin_message_id,omitempty"`
	OriginChatID    *int64     `json:"origin_chat_id,omitempty"`
	Type            Type       `json:"content_type,omitempty"`
	Status          Status     `json:"status"`
	DateAdded       time.Time  `json:"date_added"`
	DateRead        *time.Time `json:"date_read,omitempty"`
	Tags            []string   `json:"tags,omitempty"` // populated from content_item_tags
}

// NewItem carries the fields known when a message is received.
type NewItem struct {
	Owner           int64
	Content         string
	Source          string
	OriginMessageID *int64
	OriginChatID    *int64
}

// Tag is a user-defined label, unique per owner.
type Tag struct {
	ID        int64     `json:"id"`
	Owner     int64     `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows item queries. Zero-valued fields match everything.
type Filter struct {
	Type   Type
	Status Status
}

// Statistics summarises an owner's collection.
type Statistics struct {
	Total         int          `json:"total"`
	Unread        int          `json:"unread"`
	Read          int          `json:"read"`
	ReadLastWeek  int          `json:"read_last_week"`
	ReadLastMonth int          `json:"read_last_month"`
	ByType        map[Type]int `json:"by_type"`
}
