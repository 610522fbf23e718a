// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"homework_status_bot/internal/app"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// StatusReporter exposes the poller state to operator commands.
type StatusReporter interface {
	Snapshot() app.Snapshot
}

const helpText = "Я слежу за статусом проверки домашних работ и пишу сюда, когда он меняется.\n\n" +
	"/status - состояние опроса API\n" +
	"/help - показать это сообщение"

// RegisterBotCommands wires /start, /help and /status. Commands are answered
// only in the configured chat.
func RegisterBotCommands(
	b *telebot.Bot,
	chatID int64,
	reporter StatusReporter,
	baseLogger *logrus.Entry, // For contextual logging
) {
	cmdLogger := baseLogger.WithField("handler_group", "commands")

	guard := func(command string, next func(c telebot.Context, logCtx *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			logCtx := cmdLogger.WithField("command", command)
			if c.Sender() != nil {
				logCtx = logCtx.WithField("sender_id", c.Sender().ID)
			}
			if c.Chat() == nil || c.Chat().ID != chatID {
				logCtx.Warn("Command from foreign chat ignored")
				return c.Send("Этот бот работает только в настроенном чате.")
			}
			logCtx.Info("Processing command")
			return next(c, logCtx)
		}
	}

	b.Handle("/start", guard("/start", func(c telebot.Context, _ *logrus.Entry) error {
		return c.Send("Привет! " + helpText)
	}))

	b.Handle("/help", guard("/help", func(c telebot.Context, _ *logrus.Entry) error {
		return c.Send(helpText)
	}))

	b.Handle("/status", guard("/status", func(c telebot.Context, logCtx *logrus.Entry) error {
		snap := reporter.Snapshot()
		logCtx.WithField("outcome", snap.LastOutcome).Debug("Reporting poller status")
		return c.Send(formatStatus(snap))
	}))
}

func formatStatus(snap app.Snapshot) string {
	var b strings.Builder
	b.WriteString("Состояние опроса\n")
	fmt.Fprintf(&b, "Опрашиваю изменения с: %s\n", time.Unix(snap.Watermark, 0).Format("2006-01-02 15:04:05"))

	switch snap.LastOutcome {
	case app.OutcomeOK:
		fmt.Fprintf(&b, "Последний опрос: %s, успешно\n", snap.LastCycleAt.Format("2006-01-02 15:04:05"))
	case app.OutcomeFailure:
		fmt.Fprintf(&b, "Последний опрос: %s, ошибка (%s)\n", snap.LastCycleAt.Format("2006-01-02 15:04:05"), snap.LastErrorKind)
	default:
		b.WriteString("Опросов ещё не было\n")
	}

	if snap.Delivery.LastMessage != "" {
		fmt.Fprintf(&b, "Последнее уведомление: %s\n", snap.Delivery.LastMessage)
	}
	if snap.Delivery.LastErrorMessage != "" {
		fmt.Fprintf(&b, "Последняя ошибка: %s\n", snap.Delivery.LastErrorMessage)
	}
	return strings.TrimRight(b.String(), "\n")
}
