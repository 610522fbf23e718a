package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner is one poll cycle. It must handle its own errors.
type CycleRunner interface {
	RunCycle(ctx context.Context)
}

// onceAt fires a single time at the given instant and is dormant afterwards.
type onceAt time.Time

func (o onceAt) Next(t time.Time) time.Time {
	if at := time.Time(o); at.After(t) {
		return at
	}
	return time.Time{}
}

// PollScheduler runs a CycleRunner right away and then again interval after
// each cycle completes, so the idle gap between cycles is never shorter than
// interval and cycles never overlap.
type PollScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	interval   time.Duration
	logger     *logrus.Entry
	job        cron.Job

	mu      sync.Mutex // guards entryID
	entryID cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPollScheduler(runner CycleRunner, interval time.Duration, logger *logrus.Entry) *PollScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PollScheduler{
		cronEngine: cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		runner:     runner,
		interval:   interval,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.job = cron.SkipIfStillRunning(cron.PrintfLogger(logger))(cron.FuncJob(s.runAndRearm))
	return s
}

func (s *PollScheduler) Start() {
	s.logger.WithField("interval", s.interval.String()).Info("Starting poll scheduler...")
	s.cronEngine.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
}

func (s *PollScheduler) runAndRearm() {
	if s.ctx.Err() != nil {
		return
	}
	started := time.Now()
	s.runner.RunCycle(s.ctx)
	finished := time.Now()
	s.logger.WithField("duration", finished.Sub(started).String()).Debug("Poll cycle completed")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if s.entryID != 0 {
		s.cronEngine.Remove(s.entryID)
	}
	next := finished.Add(s.interval)
	s.entryID = s.cronEngine.Schedule(onceAt(next), s.job)
	s.logger.WithField("next_run", next.Format(time.RFC3339)).Debug("Next poll cycle scheduled")
}

// Stop prevents new cycles, cancels the running one and waits for it to return.
func (s *PollScheduler) Stop() {
	s.logger.Info("Stopping poll scheduler...")
	s.cancel()
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Poll scheduler gracefully stopped.")
}
