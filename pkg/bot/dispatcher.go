// Package bot implements the conversation of the read-it-later bot: the intake
// dialog that classifies and tags saved material, the tag-filter dialog and
// paged retrieval. It is transport independent; adapters feed it events and
// present the returned Response.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
)

// SourceDirect is the source of messages typed by the owner.
const SourceDirect = "direct"

// Attachment carries what the transport knows about a message besides its text.
type Attachment struct {
	Source          string
	OriginMessageID *int64
	OriginChatID    *int64
}

// Recorder counts dispatcher activity. *metrics.Metrics implements it.
type Recorder interface {
	Event(kind string)
	Transition(state string)
	StoreError(op string)
}

type nopRecorder struct{}

func (nopRecorder) Event(string)      {}
func (nopRecorder) Transition(string) {}
func (nopRecorder) StoreError(string) {}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.metrics = r }
}

func WithPageSize(n int) Option {
	return func(d *Dispatcher) { d.pageSize = n }
}

// Dispatcher routes inbound events to the intake dialog, the tag-filter
// dialog or retrieval, based on the event and the owner's session. Events of
// one owner are handled one at a time; different owners proceed in parallel.
type Dispatcher struct {
	store    Store
	sessions session.Store
	log      logger.Logger
	metrics  Recorder
	pageSize int
	retrieve *Retriever
	locks    ownerLocks
}

func New(store Store, sessions session.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		sessions: sessions,
		log:      logger.NewNop(),
		metrics:  nopRecorder{},
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.retrieve = NewRetriever(store, d.pageSize)
	return d
}

// Retriever exposes the retrieval engine the dispatcher uses.
func (d *Dispatcher) Retriever() *Retriever { return d.retrieve }

// event identifies one inbound event in handlers and logs.
type event struct {
	owner int64
	log   logger.Logger
}

func (d *Dispatcher) begin(owner int64, kind string) (event, func()) {
	unlock := d.locks.lock(owner)
	d.metrics.Event(kind)
	log := d.log.With(
		logger.String("event_id", uuid.NewString()),
		logger.String("event", kind),
		logger.Int64("owner", owner),
	)
	return event{owner: owner, log: log}, unlock
}

// OnPlainMessage handles a text message. Messages starting with "/" are
// commands. Otherwise the text names a new tag when the intake dialog asked
// for one, and is saved as new material in every other case.
func (d *Dispatcher) OnPlainMessage(ctx context.Context, owner int64, text string, att Attachment) Response {
	ev, unlock := d.begin(owner, "message")
	defer unlock()

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		return d.command(ctx, ev, trimmed)
	}

	state, err := d.loadState(ctx, ev)
	if err != nil {
		return d.failure(ev, "session_get", err)
	}

	switch st := state.(type) {
	case session.AwaitingTag:
		if st.AwaitingNewTagName {
			return d.addNewTag(ctx, ev, st, trimmed)
		}
	case session.AwaitingTagFilter:
		return textReply(filterHintText)
	}
	return d.save(ctx, ev, text, att)
}

// OnChoice handles a pressed button.
func (d *Dispatcher) OnChoice(ctx context.Context, owner int64, token string) Response {
	ev, unlock := d.begin(owner, "choice")
	defer unlock()

	choice, err := ParseChoice(token)
	if err != nil {
		ev.log.Warn("Rejected button token", logger.String("token", token), logger.Error(err))
		return Response{Notice: unknownActionNotice}
	}

	// Buttons on item cards work regardless of the dialog state.
	switch choice.Kind {
	case ChoiceNoop:
		return Response{}
	case ChoiceOpenItem:
		return d.openItem(ctx, ev, choice.ID)
	case ChoiceStatus:
		return d.changeStatus(ctx, ev, choice.ID, choice.Status)
	case ChoiceDelete:
		return d.deleteItem(ctx, ev, choice.ID)
	}

	state, err := d.loadState(ctx, ev)
	if err != nil {
		return d.failure(ev, "session_get", err)
	}

	switch choice.Kind {
	case ChoiceContentType:
		return d.chooseContentType(ctx, ev, state, choice.Type)
	case ChoiceTag:
		return d.chooseTag(ctx, ev, state, choice.ID)
	case ChoiceNewTag:
		return d.requestNewTag(ctx, ev, state)
	case ChoiceSkipTags:
		return d.finishTagging(ctx, ev, state)
	case ChoiceTagPage:
		return d.turnTagPage(ctx, ev, state, choice.Page)
	case ChoiceFilterToggle:
		return d.toggleFilterTag(ctx, ev, state, choice.ID)
	case ChoiceFilterApply:
		return d.applyFilter(ctx, ev, state, choice.Relation)
	case ChoiceFilterCancel:
		return d.cancelFilter(ctx, ev, state)
	}
	return Response{Notice: unknownActionNotice}
}

// OnPageRequest handles a listing navigation button.
func (d *Dispatcher) OnPageRequest(ctx context.Context, owner int64, token string) Response {
	ev, unlock := d.begin(owner, "page")
	defer unlock()

	req, err := ParsePage(token)
	if err != nil {
		ev.log.Warn("Rejected page token", logger.String("token", token), logger.Error(err))
		return Response{Notice: unknownActionNotice}
	}

	switch req.Kind {
	case PageByTags:
		return d.showTagListing(ctx, ev, req, true)
	default:
		return d.showListing(ctx, ev, req, true)
	}
}

// setState stores the owner's next dialog state.
// loadState returns the owner's dialog state. A stored state that no longer
// decodes is dropped and read as Idle.
func (d *Dispatcher) loadState(ctx context.Context, ev event) (session.State, error) {
	state, err := d.sessions.Get(ctx, ev.owner)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, session.ErrUnknownState) {
		return nil, err
	}

	ev.log.Warn("Dropping undecodable session", logger.Error(err))
	if err := d.sessions.Clear(ctx, ev.owner); err != nil {
		return nil, err
	}
	d.metrics.Transition(session.Name(session.Idle{}))
	return session.Idle{}, nil
}

func (d *Dispatcher) setState(ctx context.Context, ev event, state session.State) error {
	if err := d.sessions.Set(ctx, ev.owner, state); err != nil {
		return err
	}
	d.metrics.Transition(session.Name(state))
	ev.log.Debug("Session state changed", logger.String("state", session.Name(state)))
	return nil
}

// failure reports an infrastructure error. No state transition follows it.
func (d *Dispatcher) failure(ev event, op string, err error) Response {
	d.metrics.StoreError(op)
	ev.log.Error("Operation failed", logger.String("op", op), logger.Error(err))
	return Response{Notice: tryLaterText, Replies: []Reply{{Text: tryLaterText}}}
}

// stale answers a button or message that refers to something that no longer
// exists. With clearSession the owner's dialog pointed at it and is dropped.
func (d *Dispatcher) stale(ctx context.Context, ev event, clearSession bool) Response {
	ev.log.Info("Stale interaction", logger.Bool("session_cleared", clearSession))
	if clearSession {
		if err := d.sessions.Clear(ctx, ev.owner); err != nil {
			ev.log.Warn("Failed to clear stale session", logger.Error(err))
		} else {
			d.metrics.Transition(session.Name(session.Idle{}))
		}
	}
	return Response{Notice: staleText, Replies: []Reply{{Text: staleText}}}
}

// itemGone reports whether err means the item no longer exists.
func itemGone(err error) bool {
	return errors.Is(err, content.ErrItemNotFound)
}

type ownerLocks struct {
	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func (l *ownerLocks) lock(owner int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*ownerLock)
	}
	ol, ok := l.locks[owner]
	if !ok {
		ol = &ownerLock{}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}
