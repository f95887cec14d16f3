// Package reconcile periodically pushes locally synthesized projects to the
// remote store.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

// Reconciler is implemented by *service.ProjectService.
type Reconciler interface {
	Reconcile(ctx context.Context, limiter *rate.Limiter) (service.ReconcileResult, error)
}

type Options struct {
	// Schedule is a six-field cron spec (seconds first).
	Schedule  string
	RatePerS  float64
	BurstSize int
}

type Scheduler struct {
	cron    *cron.Cron
	target  Reconciler
	limiter *rate.Limiter
	log     *logging.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(target Reconciler, opts Options) (*Scheduler, error) {
	if opts.BurstSize <= 0 {
		opts.BurstSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		target:  target,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerS), opts.BurstSize),
		log:     logging.New("reconcile"),
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(opts.Schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", opts.Schedule, err)
	}
	return s, nil
}

// Start begins running the job on its schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("start", "cron scheduler started")
}

// RunOnce runs one pass unless one is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (service.ReconcileResult, bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Debugf("run", "previous pass still running, skipping")
		return service.ReconcileResult{}, false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	res, err := s.target.Reconcile(ctx, s.limiter)
	if err != nil {
		s.log.Warnf("run", "pass aborted: %v", err)
	}
	return res, true
}

// Stop halts the schedule, cancels a running pass and waits for it.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Infof("stop", "cron scheduler stopped")
}
