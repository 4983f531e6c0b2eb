package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/unowned-ai/readlater/pkg/bot"
)

// attachmentFrom describes where a message came from. Forwarded channel
// posts keep the channel and post ids so the item card can link back.
func attachmentFrom(msg *tgbotapi.Message) bot.Attachment {
	switch {
	case msg.ForwardFromChat != nil:
		chat := msg.ForwardFromChat
		att := bot.Attachment{Source: chatName(chat)}
		if msg.ForwardFromMessageID != 0 {
			chatID := chat.ID
			msgID := int64(msg.ForwardFromMessageID)
			att.OriginChatID = &chatID
			att.OriginMessageID = &msgID
		}
		return att
	case msg.ForwardFrom != nil:
		return bot.Attachment{Source: userName(msg.ForwardFrom)}
	case msg.ForwardSenderName != "":
		return bot.Attachment{Source: msg.ForwardSenderName}
	default:
		return bot.Attachment{Source: bot.SourceDirect}
	}
}

func chatName(chat *tgbotapi.Chat) string {
	if chat.UserName != "" {
		return "@" + chat.UserName
	}
	if chat.Title != "" {
		return chat.Title
	}
	return bot.SourceDirect
}

func userName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return bot.SourceDirect
}

// messageText returns the text of a message, falling back to the caption of
// media posts.
func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func inlineKeyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		markup = append(markup, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markup...)
}

func menuKeyboard(commands []string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([]tgbotapi.KeyboardButton, 0, len(commands))
	for _, c := range commands {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(c))
	}
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
	kb.ResizeKeyboard = true
	return kb
}

// origin is the message carrying a pressed button.
type origin struct {
	chatID    int64
	messageID int
}

// chattable converts one reply into the API call that presents it.
func chattable(chatID int64, from *origin, r bot.Reply) tgbotapi.Chattable {
	if r.Replace && from != nil {
		if len(r.Buttons) > 0 {
			return tgbotapi.NewEditMessageTextAndMarkup(from.chatID, from.messageID, r.Text, inlineKeyboard(r.Buttons))
		}
		return tgbotapi.NewEditMessageText(from.chatID, from.messageID, r.Text)
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.DisableWebPagePreview = true
	switch {
	case len(r.Buttons) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Buttons)
	case len(r.Menu) > 0:
		msg.ReplyMarkup = menuKeyboard(r.Menu)
	}
	return msg
}
