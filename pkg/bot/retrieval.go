package bot

import (
	"context"
	"errors"

	"github.com/unowned-ai/readlater/pkg/content"
)

// DefaultPageSize is the number of items per listing page.
const DefaultPageSize = 5

// ErrInvalidPage is returned for negative page numbers.
var ErrInvalidPage = errors.New("page number must not be negative")

// Store is the persistence the bot depends on. *content.Store implements it.
type Store interface {
	CreateItem(ctx context.Context, n content.NewItem) (int64, error)
	GetItem(ctx context.Context, id int64) (content.Item, error)
	SetContentType(ctx context.Context, id int64, t content.Type) error
	SetStatus(ctx context.Context, id int64, status content.Status) error
	DeleteItem(ctx context.Context, id int64) error
	GetLast(ctx context.Context, owner int64, f content.Filter) (*content.Item, error)
	GetRandomUnread(ctx context.Context, owner int64, t content.Type) (*content.Item, error)
	ListItems(ctx context.Context, owner int64, limit, offset int, f content.Filter) ([]content.Item, error)
	ListItemsByTags(ctx context.Context, owner int64, tagIDs []int64, rel content.Relation, limit, offset int) ([]content.Item, error)
	ListTags(ctx context.Context, owner int64) ([]content.Tag, error)
	GetTag(ctx context.Context, id int64) (content.Tag, error)
	FindOrCreateTag(ctx context.Context, owner int64, name string) (int64, error)
	LinkTag(ctx context.Context, itemID, tagID int64) error
	GetStatistics(ctx context.Context, owner int64) (content.Statistics, error)
}

// Page is one window of a listing.
type Page struct {
	Items   []content.Item `json:"items"`
	Number  int            `json:"page"`
	Size    int            `json:"page_size"`
	HasNext bool           `json:"has_next"`
}

// Empty reports a page without items. On page 0 it means the owner has no
// matching materials at all, beyond it the listing has ended.
func (p Page) Empty() bool { return len(p.Items) == 0 }

// PastEnd reports an empty page after the first one.
func (p Page) PastEnd() bool { return p.Empty() && p.Number > 0 }

// Retriever serves owner-scoped views over the collection. It holds no state
// between calls; pages are addressed by number only.
type Retriever struct {
	store    Store
	pageSize int
}

func NewRetriever(store Store, pageSize int) *Retriever {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Retriever{store: store, pageSize: pageSize}
}

// PageSize returns the configured page size.
func (r *Retriever) PageSize() int { return r.pageSize }

// Last returns the most recently added matching item, or nil.
func (r *Retriever) Last(ctx context.Context, owner int64, f content.Filter) (*content.Item, error) {
	return r.store.GetLast(ctx, owner, f)
}

// RandomUnread returns a uniformly chosen unread item, or nil.
func (r *Retriever) RandomUnread(ctx context.Context, owner int64, t content.Type) (*content.Item, error) {
	return r.store.GetRandomUnread(ctx, owner, t)
}

// List returns page `number` of the owner's items, unread first then newest.
func (r *Retriever) List(ctx context.Context, owner int64, number int, f content.Filter) (Page, error) {
	return r.page(number, func(limit, offset int) ([]content.Item, error) {
		return r.store.ListItems(ctx, owner, limit, offset, f)
	})
}

// ByTags returns page `number` of the owner's items matching the tag set.
func (r *Retriever) ByTags(ctx context.Context, owner int64, tagIDs []int64, rel content.Relation, number int) (Page, error) {
	return r.page(number, func(limit, offset int) ([]content.Item, error) {
		return r.store.ListItemsByTags(ctx, owner, tagIDs, rel, limit, offset)
	})
}

// page asks for one row more than a page holds to learn whether another page follows.
func (r *Retriever) page(number int, fetch func(limit, offset int) ([]content.Item, error)) (Page, error) {
	if number < 0 {
		return Page{}, ErrInvalidPage
	}

	items, err := fetch(r.pageSize+1, number*r.pageSize)
	if err != nil {
		return Page{}, err
	}

	p := Page{Number: number, Size: r.pageSize, Items: items}
	if len(items) > r.pageSize {
		p.Items = items[:r.pageSize]
		p.HasNext = true
	}
	return p, nil
}

// Item returns one of the owner's items. Items of other owners are reported
// as content.ErrItemNotFound.
func (r *Retriever) Item(ctx context.Context, owner, id int64) (content.Item, error) {
	item, err := r.store.GetItem(ctx, id)
	if err != nil {
		return content.Item{}, err
	}
	if item.Owner != owner {
		return content.Item{}, content.ErrItemNotFound
	}
	return item, nil
}

// SetStatus changes the status of one of the owner's items and returns it
// as stored afterwards.
func (r *Retriever) SetStatus(ctx context.Context, owner, id int64, status content.Status) (content.Item, error) {
	if _, err := r.Item(ctx, owner, id); err != nil {
		return content.Item{}, err
	}
	if err := r.store.SetStatus(ctx, id, status); err != nil {
		return content.Item{}, err
	}
	return r.store.GetItem(ctx, id)
}

// Delete removes one of the owner's items.
func (r *Retriever) Delete(ctx context.Context, owner, id int64) error {
	if _, err := r.Item(ctx, owner, id); err != nil {
		return err
	}
	return r.store.DeleteItem(ctx, id)
}

// Tags lists the owner's tags by name.
func (r *Retriever) Tags(ctx context.Context, owner int64) ([]content.Tag, error) {
	return r.store.ListTags(ctx, owner)
}

// Statistics summarises the owner's collection.
func (r *Retriever) Statistics(ctx context.Context, owner int64) (content.Statistics, error) {
	return r.store.GetStatistics(ctx, owner)
}
