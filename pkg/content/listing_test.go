package content

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func TestListItems_PaginationCoverage(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	const total, pageSize = 13, 5
	ids := make([]int64, 0, total)
	for i := 0; i < total; i++ {
		ids = append(ids, createTestItem(t, ctx, s, clock, 1, "item"))
	}
	// Every third item is processed; those must sort after all unread ones.
	for i, id := range ids {
		if i%3 == 0 {
			if err := s.SetStatus(ctx, id, StatusProcessed); err != nil {
				t.Fatalf("SetStatus failed: %v", err)
			}
		}
	}
	createTestItem(t, ctx, s, clock, 2, "other owner")

	var all []Item
	pages := (total + pageSize - 1) / pageSize
	for page := 0; page < pages; page++ {
		items, err := s.ListItems(ctx, 1, pageSize, page*pageSize, Filter{})
		if err != nil {
			t.Fatalf("ListItems page %d failed: %v", page, err)
		}
		if page < pages-1 && len(items) != pageSize {
			t.Errorf("Page %d: expected %d items, got %d", page, pageSize, len(items))
		}
		all = append(all, items...)
	}

	past, err := s.ListItems(ctx, 1, pageSize, pages*pageSize, Filter{})
	if err != nil {
		t.Fatalf("ListItems past the end failed: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("Expected an empty page past the end, got %d items", len(past))
	}

	if len(all) != total {
		t.Fatalf("Expected %d items across pages, got %d", total, len(all))
	}
	seen := map[int64]int{}
	for _, item := range all {
		seen[item.ID]++
		if item.Owner != 1 {
			t.Errorf("Item %d belongs to owner %d", item.ID, item.Owner)
		}
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("Item %d returned %d times", id, seen[id])
		}
	}

	ordered := sort.SliceIsSorted(all, func(i, j int) bool {
		ri, rj := all[i].Status == StatusProcessed, all[j].Status == StatusProcessed
		if ri != rj {
			return !ri
		}
		return all[i].DateAdded.After(all[j].DateAdded)
	})
	if !ordered {
		t.Errorf("Items are not ordered unread-first then newest-first")
	}
}

func TestListItems_Filter(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	video := createTestItem(t, ctx, s, clock, 1, "video")
	text := createTestItem(t, ctx, s, clock, 1, "text")
	if err := s.SetContentType(ctx, video, TypeVideo); err != nil {
		t.Fatalf("SetContentType failed: %v", err)
	}
	if err := s.SetContentType(ctx, text, TypeText); err != nil {
		t.Fatalf("SetContentType failed: %v", err)
	}
	if err := s.SetStatus(ctx, text, StatusProcessed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	videos, err := s.ListItems(ctx, 1, 10, 0, Filter{Type: TypeVideo})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != video {
		t.Errorf("Expected only the video item, got %+v", videos)
	}

	read, err := s.ListItems(ctx, 1, 10, 0, Filter{Status: StatusProcessed})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(read) != 1 || read[0].ID != text {
		t.Errorf("Expected only the processed item, got %+v", read)
	}
}

func TestListItems_AnnotatesTags(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	a := createTestItem(t, ctx, s, clock, 1, "a")
	b := createTestItem(t, ctx, s, clock, 1, "b")
	linkTestTags(t, ctx, s, 1, a, "zeta", "alpha")
	linkTestTags(t, ctx, s, 1, b, "beta")

	items, err := s.ListItems(ctx, 1, 10, 0, Filter{})
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	got := map[int64][]string{}
	for _, item := range items {
		got[item.ID] = item.Tags
	}
	if len(got[a]) != 2 || got[a][0] != "alpha" || got[a][1] != "zeta" {
		t.Errorf("Expected item a tags [alpha zeta], got %v", got[a])
	}
	if len(got[b]) != 1 || got[b][0] != "beta" {
		t.Errorf("Expected item b tags [beta], got %v", got[b])
	}
}

func linkTestTags(t *testing.T, ctx context.Context, s *Store, owner, itemID int64, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tagID, err := s.FindOrCreateTag(ctx, owner, name)
		if err != nil {
			t.Fatalf("FindOrCreateTag(%q) failed: %v", name, err)
		}
		if err := s.LinkTag(ctx, itemID, tagID); err != nil {
			t.Fatalf("LinkTag failed: %v", err)
		}
		ids = append(ids, tagID)
	}
	return ids
}

func tagSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func TestListItemsByTags(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	both := createTestItem(t, ctx, s, clock, 1, "science and go")
	scienceOnly := createTestItem(t, ctx, s, clock, 1, "science")
	goOnly := createTestItem(t, ctx, s, clock, 1, "go")
	untagged := createTestItem(t, ctx, s, clock, 1, "nothing")

	ids := linkTestTags(t, ctx, s, 1, both, "science", "go")
	scienceID, goID := ids[0], ids[1]
	linkTestTags(t, ctx, s, 1, scienceOnly, "science", "art")
	linkTestTags(t, ctx, s, 1, goOnly, "go")

	query := []int64{scienceID, goID}

	t.Run("and", func(t *testing.T) {
		items, err := s.ListItemsByTags(ctx, 1, query, RelationAnd, 10, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(items) != 1 || items[0].ID != both {
			t.Fatalf("Expected only item %d, got %+v", both, items)
		}
		for _, item := range items {
			set := tagSet(item.Tags)
			if !set["science"] || !set["go"] {
				t.Errorf("Item %d tags %v are not a superset of the query", item.ID, item.Tags)
			}
		}
	})

	t.Run("and with duplicate ids", func(t *testing.T) {
		items, err := s.ListItemsByTags(ctx, 1, []int64{scienceID, scienceID, goID}, RelationAnd, 10, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(items) != 1 || items[0].ID != both {
			t.Errorf("Expected duplicates to be ignored, got %+v", items)
		}
	})

	t.Run("or", func(t *testing.T) {
		items, err := s.ListItemsByTags(ctx, 1, query, RelationOr, 10, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("Expected 3 items, got %d: %+v", len(items), items)
		}
		for _, item := range items {
			if item.ID == untagged {
				t.Errorf("Untagged item returned")
			}
			set := tagSet(item.Tags)
			if !set["science"] && !set["go"] {
				t.Errorf("Item %d tags %v do not intersect the query", item.ID, item.Tags)
			}
		}
		// Newest first among unread items.
		if items[0].ID != goOnly || items[2].ID != both {
			t.Errorf("Unexpected order: %d, %d, %d", items[0].ID, items[1].ID, items[2].ID)
		}
	})

	t.Run("paged", func(t *testing.T) {
		first, err := s.ListItemsByTags(ctx, 1, query, RelationOr, 2, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		second, err := s.ListItemsByTags(ctx, 1, query, RelationOr, 2, 2)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(first) != 2 || len(second) != 1 {
			t.Errorf("Expected pages of 2 and 1, got %d and %d", len(first), len(second))
		}
	})

	t.Run("empty set", func(t *testing.T) {
		items, err := s.ListItemsByTags(ctx, 1, nil, RelationAnd, 10, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("Expected no items for an empty tag set, got %d", len(items))
		}
	})

	t.Run("other owner", func(t *testing.T) {
		items, err := s.ListItemsByTags(ctx, 2, query, RelationOr, 10, 0)
		if err != nil {
			t.Fatalf("ListItemsByTags failed: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("Expected no items for another owner, got %d", len(items))
		}
	})

	t.Run("invalid relation", func(t *testing.T) {
		_, err := s.ListItemsByTags(ctx, 1, query, Relation("xor"), 10, 0)
		if !errors.Is(err, ErrInvalidRelation) {
			t.Errorf("Expected ErrInvalidRelation, got: %v", err)
		}
	})
}
