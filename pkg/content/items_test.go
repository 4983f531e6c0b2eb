package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unowned-ai/readlater/pkg/db"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func setupTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(testDB, WithClock(clock.Now)), clock
}

// createTestItem stores an item and moves the clock forward so that
// date_added values are strictly increasing.
func createTestItem(t *testing.T, ctx context.Context, s *Store, clock *testClock, owner int64, text string) int64 {
	t.Helper()
	id, err := s.CreateItem(ctx, NewItem{Owner: owner, Content: text, Source: "direct"})
	if err != nil {
		t.Fatalf("CreateItem failed in createTestItem: %v", err)
	}
	clock.Advance(time.Minute)
	return id
}

func TestCreateItem(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	msgID, chatID := int64(77), int64(-1001234567890)
	id, err := s.CreateItem(ctx, NewItem{
		Owner:           42,
		Content:         "https://example.com/article",
		Source:          "@golangweekly",
		OriginMessageID: &msgID,
		OriginChatID:    &chatID,
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("Expected a positive id, got %d", id)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}

	if item.Owner != 42 || item.Content != "https://example.com/article" || item.Source != "@golangweekly" {
		t.Errorf("Stored item doesn't match created item: %+v", item)
	}
	if item.Status != StatusUnread {
		t.Errorf("Expected status %q, got %q", StatusUnread, item.Status)
	}
	if item.Type != TypeNone {
		t.Errorf("Expected no content type, got %q", item.Type)
	}
	if item.DateRead != nil {
		t.Errorf("Expected no read date, got %v", item.DateRead)
	}
	if !item.DateAdded.Equal(clock.now) {
		t.Errorf("Expected date added %v, got %v", clock.now, item.DateAdded)
	}
	if item.OriginMessageID == nil || *item.OriginMessageID != msgID {
		t.Errorf("Expected origin message id %d, got %v", msgID, item.OriginMessageID)
	}
	if item.OriginChatID == nil || *item.OriginChatID != chatID {
		t.Errorf("Expected origin chat id %d, got %v", chatID, item.OriginChatID)
	}

	second, err := s.CreateItem(ctx, NewItem{Owner: 42, Content: "plain note"})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if second <= id {
		t.Errorf("Expected ids to increase, got %d after %d", second, id)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.GetItem(context.Background(), 9999)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got: %v", err)
	}
}

func TestSetContentType(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, ctx, s, clock, 1, "https://youtu.be/xyz")

	if err := s.SetContentType(ctx, id, TypeVideo); err != nil {
		t.Fatalf("SetContentType failed: %v", err)
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Type != TypeVideo {
		t.Errorf("Expected type %q, got %q", TypeVideo, item.Type)
	}

	if err := s.SetContentType(ctx, id, TypeNone); err != nil {
		t.Fatalf("SetContentType to none failed: %v", err)
	}
	item, _ = s.GetItem(ctx, id)
	if item.Type != TypeNone {
		t.Errorf("Expected type to be cleared, got %q", item.Type)
	}

	if err := s.SetContentType(ctx, id, Type("podcast")); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Expected ErrInvalidType, got: %v", err)
	}
	if err := s.SetContentType(ctx, 9999, TypeText); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got: %v", err)
	}
}

func TestSetStatus_ReadDateFollowsStatus(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, ctx, s, clock, 1, "note")

	sequence := []Status{StatusProcessed, StatusUnread, StatusUnread, StatusProcessed, StatusProcessed, StatusUnread}
	for i, status := range sequence {
		clock.Advance(time.Hour)
		if err := s.SetStatus(ctx, id, status); err != nil {
			t.Fatalf("step %d: SetStatus(%q) failed: %v", i, status, err)
		}

		item, err := s.GetItem(ctx, id)
		if err != nil {
			t.Fatalf("step %d: GetItem failed: %v", i, err)
		}
		if item.Status != status {
			t.Errorf("step %d: expected status %q, got %q", i, status, item.Status)
		}
		if (item.DateRead != nil) != (status == StatusProcessed) {
			t.Errorf("step %d: read date %v inconsistent with status %q", i, item.DateRead, status)
		}
		if status == StatusProcessed && !item.DateRead.Equal(clock.now) {
			t.Errorf("step %d: expected read date %v, got %v", i, clock.now, item.DateRead)
		}
	}
}

func TestSetStatus_ProcessedThenUnreadRestoresEmptyReadDate(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, ctx, s, clock, 1, "note")

	if err := s.SetStatus(ctx, id, StatusProcessed); err != nil {
		t.Fatalf("SetStatus processed failed: %v", err)
	}
	if err := s.SetStatus(ctx, id, StatusUnread); err != nil {
		t.Fatalf("SetStatus unread failed: %v", err)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Status != StatusUnread || item.DateRead != nil {
		t.Errorf("Expected unread item without read date, got status %q read %v", item.Status, item.DateRead)
	}
}

func TestSetStatus_Errors(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, ctx, s, clock, 1, "note")

	if err := s.SetStatus(ctx, id, Status("archived")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got: %v", err)
	}
	if err := s.SetStatus(ctx, 9999, StatusProcessed); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got: %v", err)
	}
}

func TestDeleteItem_CascadesTagLinks(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, ctx, s, clock, 1, "note")

	tagID, err := s.FindOrCreateTag(ctx, 1, "science")
	if err != nil {
		t.Fatalf("FindOrCreateTag failed: %v", err)
	}
	if err := s.LinkTag(ctx, id, tagID); err != nil {
		t.Fatalf("LinkTag failed: %v", err)
	}

	if err := s.DeleteItem(ctx, id); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	if _, err := s.GetItem(ctx, id); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound after deletion, got: %v", err)
	}

	var links int
	if err := s.db.GetContext(ctx, &links, `SELECT COUNT(*) FROM content_item_tags WHERE content_item_id = ?`, id); err != nil {
		t.Fatalf("Failed to count links: %v", err)
	}
	if links != 0 {
		t.Errorf("Expected tag links to be removed, found %d", links)
	}

	// The tag itself outlives the item.
	if _, err := s.GetTag(ctx, tagID); err != nil {
		t.Errorf("Expected tag to survive item deletion, got: %v", err)
	}

	if err := s.DeleteItem(ctx, id); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound deleting twice, got: %v", err)
	}
}

func TestGetLast(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	item, err := s.GetLast(ctx, 1, Filter{})
	if err != nil {
		t.Fatalf("GetLast on empty collection failed: %v", err)
	}
	if item != nil {
		t.Fatalf("Expected nil item for empty collection, got %+v", item)
	}

	first := createTestItem(t, ctx, s, clock, 1, "first")
	second := createTestItem(t, ctx, s, clock, 1, "second")
	third := createTestItem(t, ctx, s, clock, 1, "third")
	createTestItem(t, ctx, s, clock, 2, "someone else's newest")

	if err := s.SetContentType(ctx, first, TypeVideo); err != nil {
		t.Fatalf("SetContentType failed: %v", err)
	}
	if err := s.SetStatus(ctx, third, StatusProcessed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	cases := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"any", Filter{}, third},
		{"unread", Filter{Status: StatusUnread}, second},
		{"processed", Filter{Status: StatusProcessed}, third},
		{"video", Filter{Type: TypeVideo}, first},
		{"unread video", Filter{Type: TypeVideo, Status: StatusUnread}, first},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.GetLast(ctx, 1, tc.filter)
			if err != nil {
				t.Fatalf("GetLast failed: %v", err)
			}
			if got == nil || got.ID != tc.want {
				t.Errorf("Expected item %d, got %+v", tc.want, got)
			}
		})
	}

	none, err := s.GetLast(ctx, 1, Filter{Type: TypeText})
	if err != nil {
		t.Fatalf("GetLast failed: %v", err)
	}
	if none != nil {
		t.Errorf("Expected no text item, got %+v", none)
	}
}

func TestGetRandomUnread(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	item, err := s.GetRandomUnread(ctx, 1, TypeNone)
	if err != nil || item != nil {
		t.Fatalf("Expected nil, nil on empty collection, got %+v, %v", item, err)
	}

	read := createTestItem(t, ctx, s, clock, 1, "read")
	unreadA := createTestItem(t, ctx, s, clock, 1, "unread a")
	unreadB := createTestItem(t, ctx, s, clock, 1, "unread b")
	createTestItem(t, ctx, s, clock, 2, "other owner")
	if err := s.SetStatus(ctx, read, StatusProcessed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := s.SetContentType(ctx, unreadB, TypeVideo); err != nil {
		t.Fatalf("SetContentType failed: %v", err)
	}

	seen := map[int64]bool{}
	for i := 0; i < 200; i++ {
		got, err := s.GetRandomUnread(ctx, 1, TypeNone)
		if err != nil {
			t.Fatalf("GetRandomUnread failed: %v", err)
		}
		if got == nil {
			t.Fatal("Expected an item, got nil")
		}
		if got.Status != StatusUnread || got.Owner != 1 {
			t.Fatalf("Got an item that is not an unread item of owner 1: %+v", got)
		}
		seen[got.ID] = true
	}
	if !seen[unreadA] || !seen[unreadB] {
		t.Errorf("Expected both unread items to be picked over 200 draws, saw %v", seen)
	}

	video, err := s.GetRandomUnread(ctx, 1, TypeVideo)
	if err != nil {
		t.Fatalf("GetRandomUnread(video) failed: %v", err)
	}
	if video == nil || video.ID != unreadB {
		t.Errorf("Expected the only unread video %d, got %+v", unreadB, video)
	}
}
