package console

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/content"
	"github.com/unowned-ai/readlater/pkg/db"
	"github.com/unowned-ai/readlater/pkg/session"
)

// run feeds msg to the model and executes the returned command once,
// feeding its result back, the way the program loop would.
func run(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(model)
	if cmd == nil {
		return m
	}
	if res, ok := cmd().(responseMsg); ok {
		next, _ = m.Update(res)
		m = next.(model)
	}
	return m
}

func typeText(t *testing.T, m model, text string) model {
	t.Helper()
	m.input.SetValue(text)
	return run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func newConsole(t *testing.T) (model, *content.Store, session.Store) {
	t.Helper()
	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	require.NoError(t, db.InitializeSchema(testDB, db.TargetSchemaVersion))

	store := content.NewStore(testDB)
	sessions := session.NewMemoryStore()
	m := initModel(bot.New(store, sessions), 9)
	m = run(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store, sessions
}

func TestConsole_SaveAndClassify(t *testing.T) {
	m, store, sessions := newConsole(t)
	ctx := context.Background()

	m = typeText(t, m, "https://go.dev/doc/effective_go")
	require.NotEmpty(t, m.keyboard, "the content type question carries buttons")
	assert.Equal(t, fromUser, m.transcript[0].from)
	questionAt := m.keyboardAt

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.buttonsFocus)

	// The first button classifies the material as text.
	first := m.keyboard[0][0]
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	state, err := sessions.Get(ctx, 9)
	require.NoError(t, err)
	tagging, ok := state.(session.AwaitingTag)
	require.True(t, ok, "expected the tag picker after %q, got %T", first.Label, state)

	item, err := store.GetItem(ctx, tagging.ItemID)
	require.NoError(t, err)
	assert.NotEqual(t, content.TypeNone, item.Type)

	assert.Equal(t, questionAt, m.keyboardAt, "the tag picker replaces the question")
	assert.Equal(t, "["+first.Label+"]", m.transcript[2].text)
	assert.Equal(t, fromNotice, m.transcript[len(m.transcript)-1].from)
}

func TestConsole_TabWithoutButtonsKeepsTyping(t *testing.T) {
	m := initModel(&recordingDispatcher{}, 1)
	m = run(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.buttonsFocus)
}

func TestConsole_EmptyInputIsIgnored(t *testing.T) {
	d := &recordingDispatcher{}
	m := initModel(d, 1)
	m = run(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, d.tokens)
	assert.Empty(t, m.transcript)
}

func TestConsole_PageButtonsGoToPageRequests(t *testing.T) {
	d := &recordingDispatcher{resp: bot.Response{Replies: []bot.Reply{{
		Text:    "Your materials",
		Buttons: [][]bot.Button{{{Label: "Next ▶️", Token: "list:1"}, {Label: "Open", Token: "item:4"}}},
	}}}}
	m := initModel(d, 1)
	m = run(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(t, m, "/all")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.buttonsFocus, "focus stays on the new buttons")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"message:/all", "page:list:1", "choice:item:4"}, d.tokens)
}

func TestApply_ReplaceWithoutButtonsClearsKeyboard(t *testing.T) {
	m := initModel(&recordingDispatcher{}, 1)
	m.apply(bot.Response{Replies: []bot.Reply{{Text: "card", Buttons: [][]bot.Button{{{Label: "Delete", Token: "del:1"}}}}}})
	require.Len(t, m.keyboard, 1)

	m.apply(bot.Response{Notice: "Material deleted.", Replies: []bot.Reply{{Text: "gone", Replace: true}}})
	assert.Empty(t, m.keyboard)
	assert.Equal(t, "gone", m.transcript[0].text)
	assert.Equal(t, fromNotice, m.transcript[1].from)
}

func TestApply_MenuShowsInFooter(t *testing.T) {
	m := initModel(&recordingDispatcher{}, 1)
	m = run(t, m, tea.WindowSizeMsg{Width: 120, Height: 24})
	m.apply(bot.Response{Replies: []bot.Reply{{Text: "help", Menu: []string{"/random", "/last", "/all"}}}})

	assert.Contains(t, m.View(), "/random /last /all")
}

type recordingDispatcher struct {
	tokens []string
	resp   bot.Response
}

func (r *recordingDispatcher) OnPlainMessage(_ context.Context, _ int64, text string, _ bot.Attachment) bot.Response {
	r.tokens = append(r.tokens, "message:"+text)
	return r.resp
}

func (r *recordingDispatcher) OnChoice(_ context.Context, _ int64, token string) bot.Response {
	r.tokens = append(r.tokens, "choice:"+token)
	return r.resp
}

func (r *recordingDispatcher) OnPageRequest(_ context.Context, _ int64, token string) bot.Response {
	r.tokens = append(r.tokens, "page:"+token)
	return r.resp
}
