// internal/app/poll_service.go
package app

import (
	"context"
	"fmt"
	"homework_status_bot/internal/domain/homework"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Messenger is what PollService needs from a Notifier.
type Messenger interface {
	Notify(ctx context.Context, message string) bool
}

// CycleOutcome describes how the last poll cycle ended.
type CycleOutcome string

const (
	OutcomeNone    CycleOutcome = "NONE" // no cycle has run yet
	OutcomeOK      CycleOutcome = "OK"
	OutcomeFailure CycleOutcome = "FAILURE"
)

// Snapshot is a point-in-time copy of the poller state, for operator commands.
type Snapshot struct {
	Watermark     int64
	LastCycleAt   time.Time
	LastOutcome   CycleOutcome
	LastErrorKind homework.ErrorKind
	Delivery      DeliveryState
}

// PollService runs one poll cycle per RunCycle call. It owns the watermark and
// the dedup state; cycles must not run concurrently.
type PollService struct {
	source   homework.StatusSource
	notifier Messenger
	logger   *logrus.Entry
	now      func() time.Time

	mu        sync.RWMutex // guards the fields below for Snapshot readers
	watermark int64
	delivery  DeliveryState
	lastAt    time.Time
	outcome   CycleOutcome
	lastKind  homework.ErrorKind
}

func NewPollService(
	source homework.StatusSource,
	notifier Messenger,
	logger *logrus.Entry,
	initialWatermark int64,
) *PollService {
	return &PollService{
		source:    source,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		watermark: initialWatermark,
		outcome:   OutcomeNone,
	}
}

// InitialWatermark is the start of the first query window: now minus lookback.
func InitialWatermark(now time.Time, lookback time.Duration) int64 {
	return now.Add(-lookback).Unix()
}

// RunCycle performs one fetch -> validate -> format -> dedup -> notify pass.
// Failures are reported to the chat and never returned; the watermark only
// advances when the whole chain succeeds.
func (s *PollService) RunCycle(ctx context.Context) {
	watermark := s.Watermark()
	logCtx := s.logger.WithField("from_date", watermark)
	logCtx.Debug("Starting poll cycle")

	next, err := s.poll(ctx, watermark, logCtx)
	if err != nil {
		s.handleFailure(ctx, err, logCtx)
		return
	}

	s.mu.Lock()
	s.watermark = next
	s.lastAt = s.now()
	s.outcome = OutcomeOK
	s.lastKind = homework.KindUnknown
	s.mu.Unlock()
	logCtx.WithField("next_from_date", next).Debug("Poll cycle finished")
}

// poll returns the watermark for the next cycle.
func (s *PollService) poll(ctx context.Context, watermark int64, logCtx *logrus.Entry) (int64, error) {
	raw, err := s.source.FetchStatuses(ctx, watermark)
	if err != nil {
		return 0, err
	}

	resp, err := homework.ValidateResponse(raw)
	if err != nil {
		return 0, err
	}

	if len(resp.Homeworks) == 0 {
		logCtx.Debug("No homework status changes in the requested window")
	}

	for _, rawEntry := range resp.Homeworks {
		message, err := homework.FormatRaw(rawEntry)
		if err != nil {
			return 0, err
		}
		s.deliver(ctx, message, false)
	}

	if !resp.HasCurrentDate {
		logCtx.Warn("API response has no current_date, keeping the previous watermark")
		return watermark, nil
	}
	return resp.CurrentDate, nil
}

func (s *PollService) handleFailure(ctx context.Context, err error, logCtx *logrus.Entry) {
	kind := homework.KindOf(err)
	switch kind {
	case homework.KindAPIRequest, homework.KindAPIStatus, homework.KindSchema:
		logCtx.WithField("error_kind", kind.String()).WithError(err).Error("Poll cycle failed")
	case homework.KindDelivery:
		// Notifier swallows these; seeing one here means a caller bypassed it.
		logCtx.WithField("error_kind", kind.String()).WithError(err).Error("Unexpected delivery error in poll cycle")
	case homework.KindUnknown:
		logCtx.WithField("error_kind", kind.String()).WithError(err).Error("Poll cycle failed with unclassified error")
	}

	s.mu.Lock()
	s.lastAt = s.now()
	s.outcome = OutcomeFailure
	s.lastKind = kind
	s.mu.Unlock()

	s.deliver(ctx, FailureMessage(err), true)
}

// deliver applies the dedup gate of the given category and records the
// message as sent only when the notifier confirms delivery.
func (s *PollService) deliver(ctx context.Context, message string, isError bool) {
	s.mu.RLock()
	last := s.delivery.LastMessage
	if isError {
		last = s.delivery.LastErrorMessage
	}
	s.mu.RUnlock()

	if !ShouldSend(message, last) {
		s.logger.WithField("error_category", isError).Debug("Skipping repeated message")
		return
	}
	if !s.notifier.Notify(ctx, message) {
		return
	}

	s.mu.Lock()
	if isError {
		s.delivery.LastErrorMessage = message
	} else {
		s.delivery.LastMessage = message
	}
	s.mu.Unlock()
}

// FailureMessage is the operator-facing text for a failed cycle.
func FailureMessage(err error) string {
	return fmt.Sprintf("Сбой в работе программы: %v", err)
}

func (s *PollService) Watermark() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark
}

func (s *PollService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Watermark:     s.watermark,
		LastCycleAt:   s.lastAt,
		LastOutcome:   s.outcome,
		LastErrorKind: s.lastKind,
		Delivery:      s.delivery,
	}
}
