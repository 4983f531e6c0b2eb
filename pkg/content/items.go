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
	itemColumns = `ci.id, ci.user_id, ci.content, ci.source, ci.message_id, ci.chat_id,
	ci.content_type, ci.status, ci.date_added, ci.date_read`

	createItemStatement = `
	INSERT INTO content_items (user_id, content, source, message_id, chat_id, status, date_added)
	VALUES (?, ?, ?, ?, ?, 'unread', ?)
	`

	getItemStatement = `
	SELECT ` + itemColumns + `
	FROM content_items ci
	WHERE ci.id = ?
	`

	setContentTypeStatement = `
	UPDATE content_items
	SET content_type = ?
	WHERE id = ?
	`

	// status and date_read change together so the pair is never observed half-updated.
	setStatusStatement = `
	UPDATE content_items
	SET status = ?,
	    date_read = CASE WHEN ? = 'processed' THEN ? ELSE NULL END
	WHERE id = ?
	`

	deleteItemTagsStatement = `
	DELETE FROM content_item_tags
	WHERE content_item_id = ?
	`

	deleteItemStatement = `
	DELETE FROM content_items
	WHERE id = ?
	`
)

type itemRow struct {
	ID          int64          `db:"id"`
	Owner       int64          `db:"user_id"`
	Content     string         `db:"content"`
	Source      string         `db:"source"`
	MessageID   sql.NullInt64  `db:"message_id"`
	ChatID      sql.NullInt64  `db:"chat_id"`
	ContentType sql.NullString `db:"content_type"`
	Status      string         `db:"status"`
	DateAdded   int64          `db:"date_added"`
	DateRead    sql.NullInt64  `db:"date_read"`
}

func (r itemRow) item() Item {
	item := Item{
		ID:        r.ID,
		Owner:     r.Owner,
		Content:   r.Content,
		Source:    r.Source,
		Type:      Type(r.ContentType.String),
		Status:    Status(r.Status),
		DateAdded: fromMillis(r.DateAdded),
	}
	if r.MessageID.Valid {
		v := r.MessageID.Int64
		item.OriginMessageID = &v
	}
	if r.ChatID.Valid {
		v := r.ChatID.Int64
		item.OriginChatID = &v
	}
	if r.DateRead.Valid {
		v := fromMillis(r.DateRead.Int64)
		item.DateRead = &v
	}
	return item
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// CreateItem stores a freshly received message as an unread, unclassified item.
func (s *Store) CreateItem(ctx context.Context, n NewItem) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		createItemStatement,
		n.Owner,
		n.Content,
		n.Source,
		nullInt64(n.OriginMessageID),
		nullInt64(n.OriginChatID),
		toMillis(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert content item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read content item id: %w", err)
	}
	return id, nil
}

// GetItem retrieves a single item with its tags.
func (s *Store) GetItem(ctx context.Context, id int64) (Item, error) {
	var row itemRow
	if err := s.db.GetContext(ctx, &row, getItemStatement, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("get content item %d: %w", id, err)
	}

	items := []Item{row.item()}
	if err := s.attachTags(ctx, items); err != nil {
		return Item{}, err
	}
	return items[0], nil
}

// SetContentType classifies an item. TypeNone clears the classification.
func (s *Store) SetContentType(ctx context.Context, id int64, t Type) error {
	if _, err := ParseType(string(t)); err != nil {
		return err
	}

	value := sql.NullString{String: string(t), Valid: t != TypeNone}
	res, err := s.db.ExecContext(ctx, setContentTypeStatement, value, id)
	if err != nil {
		return fmt.Errorf("update content type of item %d: %w", id, err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

// SetStatus changes the read status. Moving to processed stamps date_read with
// the current time, moving to unread clears it, in one statement.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, setStatusStatement, string(status), string(status), toMillis(s.now()), id)
	if err != nil {
		return fmt.Errorf("update status of item %d: %w", id, err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

// DeleteItem removes an item and its tag links in one transaction.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteItemTagsStatement, id); err != nil {
			return fmt.Errorf("delete tag links of item %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, deleteItemStatement, id)
		if err != nil {
			return fmt.Errorf("delete content item %d: %w", id, err)
		}
		return expectOneRow(res, ErrItemNotFound)
	})
}

// GetLast returns the most recently added item matching the filter, or nil
// when there is none.
func (s *Store) GetLast(ctx context.Context, owner int64, f Filter) (*Item, error) {
	where, args := f.where(owner)
	query := `SELECT ` + itemColumns + ` FROM content_items ci WHERE ` + where +
		` ORDER BY ci.date_added DESC, ci.id DESC LIMIT 1`
	return s.getOne(ctx, query, args...)
}

// GetRandomUnread picks an unread item uniformly at random, optionally
// restricted to a content type. Returns nil when there is none.
func (s *Store) GetRandomUnread(ctx context.Context, owner int64, t Type) (*Item, error) {
	where, args := Filter{Type: t, Status: StatusUnread}.where(owner)
	query := `SELECT ` + itemColumns + ` FROM content_items ci WHERE ` + where +
		` ORDER BY RANDOM() LIMIT 1`
	return s.getOne(ctx, query, args...)
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (*Item, error) {
	var row itemRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query content item: %w", err)
	}

	items := []Item{row.item()}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (f Filter) where(owner int64) (string, []any) {
	clauses := []string{"ci.user_id = ?"}
	args := []any{owner}
	if f.Type != TypeNone {
		clauses = append(clauses, "ci.content_type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		clauses = append(clauses, "ci.status = ?")
		args = append(args, string(f.Status))
	}
	return strings.Join(clauses, " AND "), args
}

func expectOneRow(res sql.Result, notFound error) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
