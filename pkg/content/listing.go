package content

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Unread items come first, newest first within each status.
const listingOrder = `
	ORDER BY CASE ci.status WHEN 'unread' THEN 0 ELSE 1 END,
	         ci.date_added DESC,
	         ci.id DESC
	LIMIT ? OFFSET ?`

// An item qualifies when it carries at least `threshold` distinct tags of the
// set: the set size for "and", one for "or".
const listByTagsStatement = `
	SELECT ` + itemColumns + `
	FROM content_items ci
	WHERE ci.user_id = ? AND ci.id IN (
		SELECT cit.content_item_id
		FROM content_item_tags cit
		WHERE cit.tag_id IN (?)
		GROUP BY cit.content_item_id
		HAVING COUNT(DISTINCT cit.tag_id) >= ?
	)` + listingOrder

// ListItems returns one window of the owner's items, each annotated with its
// tag names.
func (s *Store) ListItems(ctx context.Context, owner int64, limit, offset int, f Filter) ([]Item, error) {
	where, args := f.where(owner)
	query := `SELECT ` + itemColumns + ` FROM content_items ci WHERE ` + where + listingOrder
	args = append(args, limit, offset)

	return s.selectItems(ctx, query, args...)
}

// ListItemsByTags returns one window of the owner's items filtered by a tag
// set. An empty set matches nothing.
func (s *Store) ListItemsByTags(ctx context.Context, owner int64, tagIDs []int64, rel Relation, limit, offset int) ([]Item, error) {
	if _, err := ParseRelation(string(rel)); err != nil {
		return nil, err
	}

	distinct := dedupe(tagIDs)
	if len(distinct) == 0 {
		return []Item{}, nil
	}

	threshold := 1
	if rel == RelationAnd {
		threshold = len(distinct)
	}

	query, args, err := sqlx.In(listByTagsStatement, owner, distinct, threshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("expand tag filter query: %w", err)
	}
	return s.selectItems(ctx, s.db.Rebind(query), args...)
}

func (s *Store) selectItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
