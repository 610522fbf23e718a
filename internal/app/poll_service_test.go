package app

import (
	"context"
	"errors"
	"homework_status_bot/internal/domain/homework"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeSource struct {
	responses []any
	errs      []error
	calls     []int64
}

func (f *fakeSource) FetchStatuses(_ context.Context, fromDate int64) (any, error) {
	i := len(f.calls)
	f.calls = append(f.calls, fromDate)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return map[string]any{"homeworks": []any{}}, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentMessage
	err  error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

const testChatID int64 = 42

func newTestService(src homework.StatusSource, tg *fakeTelegram, watermark int64) *PollService {
	notifier := NewNotifier(tg, testChatID, 0, testLogger())
	return NewPollService(src, notifier, testLogger(), watermark)
}

func reviewingPayload(currentDate float64) map[string]any {
	return map[string]any{
		"homeworks": []any{
			map[string]any{"homework_name": "HW1", "status": "reviewing"},
		},
		"current_date": currentDate,
	}
}

func TestRunCycleSendsNotificationAndAdvancesWatermark(t *testing.T) {
	src := &fakeSource{responses: []any{reviewingPayload(1000)}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())

	require.Equal(t, []int64{500}, src.calls)
	require.Len(t, tg.sent, 1)
	verdict, _ := homework.Verdict(homework.StatusReviewing)
	require.Equal(t, testChatID, tg.sent[0].chatID)
	require.Contains(t, tg.sent[0].text, "HW1")
	require.Contains(t, tg.sent[0].text, verdict)
	require.Equal(t, int64(1000), svc.Watermark())

	snap := svc.Snapshot()
	require.Equal(t, OutcomeOK, snap.LastOutcome)
	require.Equal(t, tg.sent[0].text, snap.Delivery.LastMessage)
}

func TestRunCycleDeduplicatesRepeatedStatus(t *testing.T) {
	src := &fakeSource{responses: []any{reviewingPayload(1000), reviewingPayload(2000)}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())
	svc.RunCycle(context.Background())

	require.Len(t, tg.sent, 1)
	require.Equal(t, []int64{500, 1000}, src.calls)
	require.Equal(t, int64(2000), svc.Watermark())
}

func TestRunCycleTransportFailureNotifiesAndKeepsWatermark(t *testing.T) {
	cause := errors.New("connection refused")
	src := &fakeSource{errs: []error{&homework.APIRequestError{Err: cause}}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())

	require.Len(t, tg.sent, 1)
	require.True(t, strings.HasPrefix(tg.sent[0].text, "Сбой в работе программы: "))
	require.Contains(t, tg.sent[0].text, "connection refused")
	require.Equal(t, int64(500), svc.Watermark())

	snap := svc.Snapshot()
	require.Equal(t, OutcomeFailure, snap.LastOutcome)
	require.Equal(t, homework.KindAPIRequest, snap.LastErrorKind)
	require.Empty(t, snap.Delivery.LastMessage)
	require.Equal(t, tg.sent[0].text, snap.Delivery.LastErrorMessage)

	// The next cycle re-queries the same window.
	svc.RunCycle(context.Background())
	require.Equal(t, []int64{500, 500}, src.calls)
}

func TestRunCycleDeduplicatesRepeatedErrors(t *testing.T) {
	statusErr := &homework.APIStatusError{StatusCode: 503}
	src := &fakeSource{errs: []error{statusErr, statusErr, nil}, responses: []any{nil, nil, reviewingPayload(1000)}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())
	svc.RunCycle(context.Background())
	require.Len(t, tg.sent, 1)

	// Error and normal categories are tracked independently.
	svc.RunCycle(context.Background())
	require.Len(t, tg.sent, 2)
	require.Contains(t, tg.sent[1].text, "HW1")
}

func TestRunCycleSchemaErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		reason  string
	}{
		{"not a record", []any{}, homework.ReasonNotRecord},
		{"missing homeworks", map[string]any{"current_date": float64(1000)}, homework.ReasonMissingHomeworks},
		{"unknown status", map[string]any{
			"homeworks":    []any{map[string]any{"homework_name": "HW1", "status": "lost"}},
			"current_date": float64(1000),
		}, homework.ReasonUnknownStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{responses: []any{tc.payload}}
			tg := &fakeTelegram{}
			svc := newTestService(src, tg, 500)

			svc.RunCycle(context.Background())

			require.Len(t, tg.sent, 1)
			require.Contains(t, tg.sent[0].text, tc.reason)
			require.Equal(t, int64(500), svc.Watermark())
			require.Equal(t, homework.KindSchema, svc.Snapshot().LastErrorKind)
		})
	}
}

func TestRunCycleEmptyListAdvancesWithoutNotifying(t *testing.T) {
	src := &fakeSource{responses: []any{map[string]any{"homeworks": []any{}, "current_date": float64(1500)}}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())

	require.Empty(t, tg.sent)
	require.Equal(t, int64(1500), svc.Watermark())
}

func TestRunCycleMissingCurrentDateKeepsWatermark(t *testing.T) {
	src := &fakeSource{responses: []any{map[string]any{"homeworks": []any{}}}}
	tg := &fakeTelegram{}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())

	require.Empty(t, tg.sent)
	require.Equal(t, int64(500), svc.Watermark())
	require.Equal(t, OutcomeOK, svc.Snapshot().LastOutcome)
}

func TestRunCycleDeliveryFailureDoesNotRecordMessage(t *testing.T) {
	src := &fakeSource{responses: []any{reviewingPayload(1000), reviewingPayload(2000)}}
	tg := &fakeTelegram{err: errors.New("Too Many Requests")}
	svc := newTestService(src, tg, 500)

	svc.RunCycle(context.Background())
	require.Empty(t, tg.sent)
	require.Empty(t, svc.Snapshot().Delivery.LastMessage)
	require.Equal(t, int64(1000), svc.Watermark())

	// Once delivery recovers the same message goes out.
	tg.err = nil
	svc.RunCycle(context.Background())
	require.Len(t, tg.sent, 1)
}

func TestInitialWatermark(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	require.Equal(t, int64(1_700_000_000-30*60), InitialWatermark(now, 30*time.Minute))
}

func TestShouldSend(t *testing.T) {
	require.False(t, ShouldSend("m", "m"))
	require.False(t, ShouldSend("", ""))
	require.True(t, ShouldSend("m2", "m1"))
	require.True(t, ShouldSend("m", ""))
}

func TestNotifierSwallowsFailures(t *testing.T) {
	tg := &fakeTelegram{err: errors.New("network down")}
	n := NewNotifier(tg, testChatID, 0, testLogger())
	require.False(t, n.Notify(context.Background(), "hello"))

	tg.err = nil
	require.True(t, n.Notify(context.Background(), "hello"))
	require.Equal(t, []sentMessage{{chatID: testChatID, text: "hello"}}, tg.sent)
}

func TestNotifierCanceledContext(t *testing.T) {
	tg := &fakeTelegram{}
	n := NewNotifier(tg, testChatID, 1, testLogger())
	require.True(t, n.Notify(context.Background(), "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, n.Notify(ctx, "second"))
	require.Len(t, tg.sent, 1)
}
