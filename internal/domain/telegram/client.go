package telegram

import "gopkg.in/telebot.v3"

// Client sends plain text to a chat. The bot talks to exactly one configured
// chat, so callers pass its ID rather than a user.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
