package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	tagColumns = `t.id, t.user_id, t.name, t.created_at`

	insertTagStatement = `
	INSERT INTO tags (user_id, name, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (user_id, name) DO NOTHING
	`

	findTagIDStatement = `
	SELECT id FROM tags
	WHERE user_id = ? AND name = ?
	`

	getTagStatement = `
	SELECT ` + tagColumns + `
	FROM tags t
	WHERE t.id = ?
	`

	listTagsStatement = `
	SELECT ` + tagColumns + `
	FROM tags t
	WHERE t.user_id = ?
	ORDER BY t.name ASC
	`

	listItemTagsStatement = `
	SELECT ` + tagColumns + `
	FROM tags t
	JOIN content_item_tags cit ON cit.tag_id = t.id
	WHERE cit.content_item_id = ?
	ORDER BY t.name ASC
	`

	itemOwnerStatement = `SELECT user_id FROM content_items WHERE id = ?`
	tagOwnerStatement  = `SELECT user_id FROM tags WHERE id = ?`

	linkTagStatement = `
	INSERT INTO content_item_tags (content_item_id, tag_id)
	VALUES (?, ?)
	ON CONFLICT (content_item_id, tag_id) DO NOTHING
	`

	// Expanded with sqlx.In for the item ids of one page.
	pageTagNamesStatement = `
	SELECT cit.content_item_id AS item_id, t.name AS name
	FROM content_item_tags cit
	JOIN tags t ON t.id = cit.tag_id
	WHERE cit.content_item_id IN (?)
	ORDER BY t.name ASC
	`
)

type tagRow struct {
	ID        int64  `db:"id"`
	Owner     int64  `db:"user_id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

func (r tagRow) tag() Tag {
	return Tag{
		ID:        r.ID,
		Owner:     r.Owner,
		Name:      r.Name,
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

// FindOrCreateTag returns the id of the owner's tag with exactly this name,
// creating it first if needed. Names are compared case-sensitively.
func (s *Store) FindOrCreateTag(ctx context.Context, owner int64, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, ErrEmptyTagName
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, insertTagStatement, owner, name, toMillis(s.now())); err != nil {
			return fmt.Errorf("insert tag %q: %w", name, err)
		}
		if err := tx.GetContext(ctx, &id, findTagIDStatement, owner, name); err != nil {
			return fmt.Errorf("find tag %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetTag retrieves a tag by id.
func (s *Store) GetTag(ctx context.Context, id int64) (Tag, error) {
	var row tagRow
	if err := s.db.GetContext(ctx, &row, getTagStatement, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, fmt.Errorf("get tag %d: %w", id, err)
	}
	return row.tag(), nil
}

// ListTags returns the owner's tags sorted by name.
func (s *Store) ListTags(ctx context.Context, owner int64) ([]Tag, error) {
	return s.selectTags(ctx, listTagsStatement, owner)
}

// ListItemTags returns the tags linked to an item sorted by name.
func (s *Store) ListItemTags(ctx context.Context, itemID int64) ([]Tag, error) {
	return s.selectTags(ctx, listItemTagsStatement, itemID)
}

func (s *Store) selectTags(ctx context.Context, query string, arg int64) ([]Tag, error) {
	var rows []tagRow
	if err := s.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	tags := make([]Tag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, r.tag())
	}
	return tags, nil
}

// LinkTag attaches a tag to an item. Linking an already linked pair succeeds
// without creating a second association.
func (s *Store) LinkTag(ctx context.Context, itemID, tagID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var itemOwner, tagOwner int64
		if err := tx.GetContext(ctx, &itemOwner, itemOwnerStatement, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("get owner of item %d: %w", itemID, err)
		}
		if err := tx.GetContext(ctx, &tagOwner, tagOwnerStatement, tagID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTagNotFound
			}
			return fmt.Errorf("get owner of tag %d: %w", tagID, err)
		}
		if itemOwner != tagOwner {
			return ErrOwnerMismatch
		}

		if _, err := tx.ExecContext(ctx, linkTagStatement, itemID, tagID); err != nil {
			return fmt.Errorf("link tag %d to item %d: %w", tagID, itemID, err)
		}
		return nil
	})
}

// attachTags fills Item.Tags for a whole page with a single query.
func (s *Store) attachTags(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	query, args, err := sqlx.In(pageTagNamesStatement, ids)
	if err != nil {
		return fmt.Errorf("expand tag query: %w", err)
	}

	var rows []struct {
		ItemID int64  `db:"item_id"`
		Name   string `db:"name"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("query tags of page: %w", err)
	}

	byItem := make(map[int64][]string, len(items))
	for _, r := range rows {
		byItem[r.ItemID] = append(byItem[r.ItemID], r.Name)
	}
	for i := range items {
		items[i].Tags = byItem[items[i].ID]
	}
	return nil
}
