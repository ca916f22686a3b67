package cache

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sweeper is implemented by any Cache[T] instantiation; it lets the
// scheduler below sweep heterogeneous caches (article cache, entity
// cache) without needing a shared type parameter.
type Sweeper interface {
	Sweep() int
}

// Scheduler runs a periodic sweep of every registered Sweeper. It is
// grounded on the teacher's cron-based trigger (core/trigger/cron_trigger.go)
// but deliberately skips that file's Worker/Broker indirection: a single
// repeating job has no need for a generic job-queue abstraction designed
// for message-driven batch workers.
type Scheduler struct {
	cron     *cron.Cron
	sweepers []Sweeper
	log      *zap.SugaredLogger
}

// NewScheduler builds a scheduler for the given caches, parsing schedules
// at seconds resolution (cron.WithSeconds()); the spec itself is passed
// to Start.
func NewScheduler(log *zap.SugaredLogger, sweepers ...Sweeper) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sweepers: sweepers,
		log:      log,
	}
}

// Start schedules the sweep on spec (e.g. "0 0 * * * *" for hourly) and
// begins running it in the background. Start is idempotent only in the
// sense that calling it twice registers two entries; callers should call
// it once per Scheduler instance.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.sweepOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweepOnce sweeps every registered cache concurrently: the caches are
// independent, so there is no reason a slow one should delay the rest.
func (s *Scheduler) sweepOnce() {
	var total atomic.Int64
	var g errgroup.Group
	for _, sw := range s.sweepers {
		sw := sw
		g.Go(func() error {
			total.Add(int64(sw.Sweep()))
			return nil
		})
	}
	_ = g.Wait()
	if s.log != nil {
		s.log.Infow("cache sweep completed", "expired_entries_removed", total.Load())
	}
}
