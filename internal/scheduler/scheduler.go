// Package scheduler runs named periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/logger"
)

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrJobRunning   = errors.New("job is already running")
	ErrDuplicateJob = errors.New("duplicate job name")
)

// State is the run state of a job.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Job is a named unit of periodic work. Spec uses the standard five-field
// cron syntax or descriptors like "@daily".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type entry struct {
	job   Job
	id    cron.EntryID
	state atomic.Int32
}

// Scheduler fires jobs on their schedules. A job never overlaps with itself:
// a firing that finds the previous run still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]*entry
	logger *zap.Logger

	mu   sync.RWMutex
	base context.Context
}

// New registers jobs in the given timezone. Nothing fires until Run.
func New(loc *time.Location, l *zap.Logger, jobs ...Job) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	cl := logger.Cron(l)

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		jobs:   make(map[string]*entry, len(jobs)),
		logger: l.With(zap.String("component", "scheduler")),
		base:   context.Background(),
	}

	for _, job := range jobs {
		if _, exists := s.jobs[job.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
		}

		e := &entry{job: job}
		id, err := s.cron.AddFunc(job.Spec, func() { s.fire(e) })
		if err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name, err)
		}
		e.id = id
		s.jobs[job.Name] = e
	}

	return s, nil
}

// Run starts the schedule and blocks until ctx is done. It then stops
// firing and waits for running jobs to return. Scheduled runs receive ctx.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	for name, e := range s.jobs {
		s.logger.Info("job scheduled",
			zap.String("job", name),
			zap.String("spec", e.job.Spec),
			zap.Time("next", s.cron.Entry(e.id).Next),
		)
	}

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	e, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, e)
}

// State returns the current state of the named job.
func (s *Scheduler) State(name string) State {
	e, ok := s.jobs[name]
	if !ok {
		return StateIdle
	}
	return State(e.state.Load())
}

// Next returns the next scheduled firing of the named job. It is zero before Run.
func (s *Scheduler) Next(name string) time.Time {
	e, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(e.id).Next
}

func (s *Scheduler) fire(e *entry) {
	s.mu.RLock()
	ctx := s.base
	s.mu.RUnlock()

	if err := s.run(ctx, e); errors.Is(err, ErrJobRunning) {
		s.logger.Warn("previous run still in progress, skipping", zap.String("job", e.job.Name))
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("%w: %s", ErrJobRunning, e.job.Name)
	}
	defer e.state.Store(int32(StateIdle))

	start := time.Now()
	s.logger.Info("job started", zap.String("job", e.job.Name))

	if err := e.job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			zap.String("job", e.job.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("job finished",
		zap.String("job", e.job.Name),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
