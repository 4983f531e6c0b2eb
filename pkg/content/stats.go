package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	statisticsStatement = `
	SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'unread' THEN 1 ELSE 0 END), 0) AS unread,
		COALESCE(SUM(CASE WHEN status = 'processed' THEN 1 ELSE 0 END), 0) AS read,
		COALESCE(SUM(CASE WHEN status = 'processed' AND date_read > ? THEN 1 ELSE 0 END), 0) AS read_last_week,
		COALESCE(SUM(CASE WHEN status = 'processed' AND date_read > ? THEN 1 ELSE 0 END), 0) AS read_last_month
	FROM content_items
	WHERE user_id = ?
	`

	countByTypeStatement = `
	SELECT content_type, COUNT(*) AS n
	FROM content_items
	WHERE user_id = ? AND content_type IS NOT NULL
	GROUP BY content_type
	`
)

// GetStatistics counts the owner's items by status, recent reads and type.
func (s *Store) GetStatistics(ctx context.Context, owner int64) (Statistics, error) {
	now := s.now()
	weekAgo := toMillis(now.Add(-7 * 24 * time.Hour))
	monthAgo := toMillis(now.Add(-30 * 24 * time.Hour))

	var counts struct {
		Total         int `db:"total"`
		Unread        int `db:"unread"`
		Read          int `db:"read"`
		ReadLastWeek  int `db:"read_last_week"`
		ReadLastMonth int `db:"read_last_month"`
	}
	if err := s.db.GetContext(ctx, &counts, statisticsStatement, weekAgo, monthAgo, owner); err != nil {
		return Statistics{}, fmt.Errorf("count content items: %w", err)
	}

	var byType []struct {
		Type  sql.NullString `db:"content_type"`
		Count int            `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &byType, countByTypeStatement, owner); err != nil {
		return Statistics{}, fmt.Errorf("count content items by type: %w", err)
	}

	stats := Statistics{
		Total:         counts.Total,
		Unread:        counts.Unread,
		Read:          counts.Read,
		ReadLastWeek:  counts.ReadLastWeek,
		ReadLastMonth: counts.ReadLastMonth,
		ByType:        make(map[Type]int, len(byType)),
	}
	for _, row := range byType {
		stats.ByType[Type(row.Type.String)] = row.Count
	}
	return stats, nil
}
