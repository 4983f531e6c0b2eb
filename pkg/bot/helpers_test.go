package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/db"
	"github.com/unowned-ai/readlater/pkg/session"
)

var errBoom = errors.New("database is locked")

// tickingClock advances by a second on every read so items get distinct dates.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) *content.Store {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	require.NoError(t, db.InitializeSchema(testDB, db.TargetSchemaVersion))

	clock := &tickingClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return content.NewStore(testDB, content.WithClock(clock.Now))
}

type countingRecorder struct {
	mu          sync.Mutex
	events      map[string]int
	transitions map[string]int
	storeErrors map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		events:      map[string]int{},
		transitions: map[string]int{},
		storeErrors: map[string]int{},
	}
}

func (r *countingRecorder) Event(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[kind]++
}

func (r *countingRecorder) Transition(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[state]++
}

func (r *countingRecorder) StoreError(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeErrors[op]++
}

// failingStore wraps a real store and fails the operations named in failOn.
type failingStore struct {
	Store
	failOn map[string]bool
}

func (f *failingStore) CreateItem(ctx context.Context, n content.NewItem) (int64, error) {
	if f.failOn["create_item"] {
		return 0, errBoom
	}
	return f.Store.CreateItem(ctx, n)
}

func (f *failingStore) SetContentType(ctx context.Context, id int64, t content.Type) error {
	if f.failOn["set_content_type"] {
		return errBoom
	}
	return f.Store.SetContentType(ctx, id, t)
}

func (f *failingStore) ListTags(ctx context.Context, owner int64) ([]content.Tag, error) {
	if f.failOn["list_tags"] {
		return nil, errBoom
	}
	return f.Store.ListTags(ctx, owner)
}

func (f *failingStore) ListItems(ctx context.Context, owner int64, limit, offset int, flt content.Filter) ([]content.Item, error) {
	if f.failOn["list_items"] {
		return nil, errBoom
	}
	return f.Store.ListItems(ctx, owner, limit, offset, flt)
}

// failingSessions fails every call.
type failingSessions struct{}

func (failingSessions) Get(context.Context, int64) (session.State, error) { return nil, errBoom }
func (failingSessions) Set(context.Context, int64, session.State) error  { return errBoom }
func (failingSessions) Clear(context.Context, int64) error               { return errBoom }

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *content.Store
	sessions *session.MemoryStore
	recorder *countingRecorder
	d        *Dispatcher
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		store:    newTestStore(t),
		sessions: session.NewMemoryStore(),
		recorder: newCountingRecorder(),
	}
	opts = append([]Option{WithRecorder(h.recorder)}, opts...)
	h.d = New(h.store, h.sessions, opts...)
	return h
}

func (h *harness) send(owner int64, text string) Response {
	h.t.Helper()
	return h.d.OnPlainMessage(h.ctx, owner, text, Attachment{})
}

func (h *harness) press(owner int64, token string) Response {
	h.t.Helper()
	if IsPageToken(token) {
		return h.d.OnPageRequest(h.ctx, owner, token)
	}
	return h.d.OnChoice(h.ctx, owner, token)
}

func (h *harness) state(owner int64) session.State {
	h.t.Helper()
	st, err := h.sessions.Get(h.ctx, owner)
	require.NoError(h.t, err)
	return st
}

func (h *harness) item(id int64) content.Item {
	h.t.Helper()
	item, err := h.store.GetItem(h.ctx, id)
	require.NoError(h.t, err)
	return item
}

// pendingID returns the item of the owner's intake dialog.
func (h *harness) pendingID(owner int64) int64 {
	h.t.Helper()
	id := pendingItem(h.state(owner))
	require.NotZero(h.t, id, "no intake dialog in progress")
	return id
}

// saveTagged runs a full intake dialog and returns the new item id.
func (h *harness) saveTagged(owner int64, text string, t content.Type, tags ...string) int64 {
	h.t.Helper()

	h.send(owner, text)
	id := h.pendingID(owner)
	h.press(owner, Choice{Kind: ChoiceContentType, Type: t}.Token())
	for _, name := range tags {
		h.press(owner, "tag:new")
		h.send(owner, name)
	}
	h.press(owner, "tag:skip")
	require.Equal(h.t, session.Idle{}, h.state(owner))
	return id
}

func (h *harness) tagID(owner int64, name string) int64 {
	h.t.Helper()
	id, err := h.store.FindOrCreateTag(h.ctx, owner, name)
	require.NoError(h.t, err)
	return id
}

// findButton returns the first button whose label contains label.
func findButton(t *testing.T, resp Response, label string) Button {
	t.Helper()
	for _, r := range resp.Replies {
		for _, row := range r.Buttons {
			for _, b := range row {
				if strings.Contains(b.Label, label) {
					return b
				}
			}
		}
	}
	t.Fatalf("no button labelled %q in %+v", label, resp)
	return Button{}
}

func lastText(resp Response) string {
	if len(resp.Replies) == 0 {
		return ""
	}
	return resp.Replies[len(resp.Replies)-1].Text
}
