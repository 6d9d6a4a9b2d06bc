package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
)

// Cycler is what the scheduler drives on every tick.
type Cycler interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

// Scheduler runs the poll cycle on a fixed interval. cron.SkipIfStillRunning
// drops a tick that arrives while the previous cycle is still in flight.
type Scheduler struct {
	cron    *cron.Cron
	monitor Cycler
	log     *slog.Logger
	entryID cron.EntryID
}

// NewScheduler creates a Scheduler that polls every interval.
func NewScheduler(m Cycler, interval time.Duration, log *slog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	s := &Scheduler{
		cron:    c,
		monitor: m,
		log:     log,
	}

	id, err := c.AddFunc("@every "+interval.String(), s.runPoll)
	if err != nil {
		return nil, err
	}
	s.entryID = id

	return s, nil
}

// Start begins running scheduled polls.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
	s.updateNextRunMetric()
}

// Stop gracefully stops the scheduler, waiting for a running cycle to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runPoll() {
	ctx := context.Background()
	res, err := s.monitor.RunCycle(ctx)
	if err != nil {
		s.log.Error("scheduled poll failed", "error", err)
	} else if len(res.Raised) > 0 {
		s.log.Info("alerts raised", "count", len(res.Raised))
	}
	s.updateNextRunMetric()
}

func (s *Scheduler) updateNextRunMetric() {
	entry := s.cron.Entry(s.entryID)
	if entry.Next.IsZero() {
		return
	}
	metrics.SchedulerNextPollTimestamp.Set(float64(entry.Next.Unix()))
}
