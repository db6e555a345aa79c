package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ErrJobNotFound is returned for an unknown job name
var ErrJobNotFound = errors.New("job not found")

// JobStatus is the outcome of a job's last run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is the work of one job run
type Task func(ctx context.Context) error

// JobStats describes a job's runs so far
type JobStats struct {
	Name        string
	Status      JobStatus
	Runs        int
	Failures    int
	LastError   string
	LastStarted time.Time
	LastElapsed time.Duration
}

// JobScheduler runs interval jobs on gocron. Every job runs in singleton
// mode: a run that is still busy when the next tick arrives makes that tick
// wait rather than overlap.
type JobScheduler struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
	logger    *zap.Logger

	mu    sync.RWMutex
	jobs  map[string]gocron.Job
	stats map[string]*JobStats
}

// New creates a scheduler; timeout bounds each job run
func New(timeout time.Duration, logger *zap.Logger) (*JobScheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobScheduler{
		scheduler: s,
		timeout:   timeout,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
		stats:     make(map[string]*JobStats),
	}, nil
}

// Register adds a job that runs task every interval
func (js *JobScheduler) Register(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.run, name, task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	js.jobs[name] = job
	js.stats[name] = &JobStats{Name: name, Status: JobStatusPending}

	js.logger.Info("Background job registered", zap.String("job", name), zap.Duration("interval", interval))
	return nil
}

// Start starts the scheduler; jobs first run one interval after start
func (js *JobScheduler) Start() {
	js.mu.RLock()
	count := len(js.jobs)
	js.mu.RUnlock()

	js.logger.Info("Starting background job scheduler", zap.Int("jobs", count))
	js.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down
func (js *JobScheduler) Stop() error {
	js.logger.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// RunNow triggers a job outside its schedule. The scheduler must be started.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}
	return job.RunNow()
}

// Stats returns a copy of a job's run statistics
func (js *JobScheduler) Stats(name string) (JobStats, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()
	st, ok := js.stats[name]
	if !ok {
		return JobStats{}, false
	}
	return *st, true
}

// Names returns the registered job names
func (js *JobScheduler) Names() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

func (js *JobScheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), js.timeout)
	defer cancel()

	start := time.Now()
	js.update(name, func(st *JobStats) {
		st.Status = JobStatusRunning
		st.LastStarted = start
	})

	err := js.safeRun(ctx, task)
	elapsed := time.Since(start)

	js.update(name, func(st *JobStats) {
		st.Runs++
		st.LastElapsed = elapsed
		if err != nil {
			st.Status = JobStatusFailed
			st.Failures++
			st.LastError = err.Error()
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		js.logger.Error("Background job failed",
			zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	js.logger.Debug("Background job completed", zap.String("job", name), zap.Duration("elapsed", elapsed))
}

func (js *JobScheduler) safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task(ctx)
}

func (js *JobScheduler) update(name string, fn func(*JobStats)) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if st, ok := js.stats[name]; ok {
		fn(st)
	}
}
