// Package scheduler runs Maxine's periodic housekeeping jobs.
// Uses robfig/cron for schedule parsing and execution.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// minJobInterval is the minimum time between consecutive runs of the same
// job. Guards against cron firing twice within the same second.
const minJobInterval = 2 * time.Second

// JobFunc does the work of a job.
type JobFunc func(ctx context.Context) error

// Job is a named recurring task.
type Job struct {
	// ID is the unique job identifier.
	ID string

	// Schedule is a 5-field cron expression or a descriptor such as
	// "@hourly" or "@every 30m".
	Schedule string

	// Run is called on every tick.
	Run JobFunc

	// RunOnStart also runs the job once when the scheduler starts.
	RunOnStart bool

	LastRunAt       time.Time
	LastRunDuration time.Duration
	LastError       string
	RunCount        int
}

// Scheduler manages the jobs.
type Scheduler struct {
	jobs        map[string]*Job
	cron        *cron.Cron
	cronIDs     map[string]cron.EntryID
	runningJobs map[string]bool
	jobTimeout  time.Duration

	logger *slog.Logger
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:        make(map[string]*Job),
		cronIDs:     make(map[string]cron.EntryID),
		runningJobs: make(map[string]bool),
		jobTimeout:  DefaultJobTimeout,
		logger:      logger.With("component", "scheduler"),
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		))),
		ctx: context.Background(),
	}
}

// SetJobTimeout overrides the per-run timeout.
func (s *Scheduler) SetJobTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobTimeout = d
}

// Add registers a job. An empty schedule disables the job without error.
func (s *Scheduler) Add(job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("scheduler: job ID is required")
	}
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %q has no function", job.ID)
	}
	if job.Schedule == "" {
		s.logger.Info("job disabled (no schedule)", "id", job.ID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("scheduler: job %q already exists", job.ID)
	}

	entryID, err := s.cron.AddFunc(job.Schedule, func() { s.executeJob(job) })
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for %s: %w", job.Schedule, job.ID, err)
	}
	s.cronIDs[job.ID] = entryID
	s.jobs[job.ID] = job

	s.logger.Info("job added", "id", job.ID, "schedule", job.Schedule)
	return nil
}

// List returns a snapshot of every job, sorted by ID.
func (s *Scheduler) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Start begins firing jobs. Jobs with RunOnStart run immediately in the
// background.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	var startup []*Job
	for _, j := range s.jobs {
		if j.RunOnStart {
			startup = append(startup, j)
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	for _, j := range startup {
		go s.executeJob(j)
	}

	s.logger.Info("scheduler started", "jobs", len(s.List()), "cron_entries", len(s.cron.Entries()))
}

// Stop waits for running jobs, up to ten seconds, then cancels them.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(10 * time.Second):
		s.logger.Warn("scheduler stop timed out")
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

// executeJob runs a job with safety guards:
//   - duplicate concurrent runs are skipped
//   - runs closer together than minJobInterval are skipped
//   - panics are recovered and recorded
//   - each run gets the job timeout
func (s *Scheduler) executeJob(job *Job) {
	s.mu.Lock()
	if s.runningJobs[job.ID] {
		s.mu.Unlock()
		s.logger.Warn("skipping job (already running)", "id", job.ID)
		return
	}
	if !job.LastRunAt.IsZero() && time.Since(job.LastRunAt) < minJobInterval {
		s.mu.Unlock()
		s.logger.Debug("skipping job (ran too recently)", "id", job.ID, "last_run_at", job.LastRunAt.Format(time.RFC3339))
		return
	}
	s.runningJobs[job.ID] = true
	now := time.Now()
	job.LastRunAt = now
	job.RunCount++
	timeout := s.jobTimeout
	parent := s.ctx
	s.mu.Unlock()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.logger.Error("scheduled job panicked", "id", job.ID, "panic", r)
		}

		s.mu.Lock()
		delete(s.runningJobs, job.ID)
		job.LastRunDuration = time.Since(now)
		if err != nil {
			job.LastError = err.Error()
		} else {
			job.LastError = ""
		}
		s.mu.Unlock()
	}()

	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	err = job.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", "id", job.ID, "error", err, "duration", time.Since(now))
		return
	}
	s.logger.Debug("scheduled job completed", "id", job.ID, "duration", time.Since(now))
}
