// internal/app/notifier.go
package app

import (
	"context"
	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Notifier delivers messages to the single configured chat. Delivery is
// best-effort: failures are logged and reported as false, never returned.
type Notifier struct {
	telegramClient domainTelegram.Client
	chatID         int64
	limiter        *rate.Limiter
	logger         *logrus.Entry
}

// NewNotifier builds a Notifier. ratePerSec <= 0 disables pacing.
func NewNotifier(tc domainTelegram.Client, chatID int64, ratePerSec float64, logger *logrus.Entry) *Notifier {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Notifier{
		telegramClient: tc,
		chatID:         chatID,
		limiter:        rate.NewLimiter(limit, 1),
		logger:         logger,
	}
}

// Notify attempts one send and reports whether it succeeded.
func (n *Notifier) Notify(ctx context.Context, message string) bool {
	if err := n.limiter.Wait(ctx); err != nil {
		n.logFailure(&homework.DeliveryError{ChatID: n.chatID, Err: err})
		return false
	}

	if err := n.telegramClient.SendMessage(n.chatID, message, nil); err != nil {
		n.logFailure(&homework.DeliveryError{ChatID: n.chatID, Err: err})
		return false
	}

	n.logger.WithField("chat_id", n.chatID).Debug("Message sent")
	return true
}

func (n *Notifier) logFailure(err *homework.DeliveryError) {
	n.logger.WithFields(logrus.Fields{
		"chat_id":    err.ChatID,
		"error_kind": err.Kind().String(),
	}).WithError(err).Error("Error during sending message")
}
