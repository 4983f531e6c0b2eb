package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/readlater/pkg/bot"
)

// responseMsg carries the dispatcher's answer back into the update loop.
type responseMsg struct {
	resp bot.Response
}

// sendText hands a typed line to the dispatcher as a plain message.
func sendText(d Dispatcher, owner int64, text string) tea.Cmd {
	return func() tea.Msg {
		resp := d.OnPlainMessage(context.Background(), owner, text, bot.Attachment{Source: bot.SourceDirect})
		return responseMsg{resp: resp}
	}
}

// pressButton hands a button token to the dispatcher.
func pressButton(d Dispatcher, owner int64, token string) tea.Cmd {
	return func() tea.Msg {
		var resp bot.Response
		if bot.IsPageToken(token) {
			resp = d.OnPageRequest(context.Background(), owner, token)
		} else {
			resp = d.OnChoice(context.Background(), owner, token)
		}
		return responseMsg{resp: resp}
	}
}
