package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFn is the function signature for ticker tasks.
type TaskFn func()

// JobFn is the function signature for cron jobs. The context is cancelled
// when the scheduler stops.
type JobFn func(ctx context.Context) error

// TaskInfo describes a registered task for the admin API.
type TaskInfo struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"` // ticker | cron
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next,omitempty"`
}

// Scheduler manages interval tickers and calendar-aligned cron jobs.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	jobs    map[string]*cronEntry
	cron    *cron.Cron
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

type tickerEntry struct {
	interval time.Duration
	stopCh   chan struct{}
}

type cronEntry struct {
	spec string
	id   cron.EntryID
}

// New creates a Scheduler whose cron specs are evaluated in loc.
func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		tickers: make(map[string]*tickerEntry),
		jobs:    make(map[string]*cronEntry),
		cron:    cron.New(cron.WithLocation(loc)),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cron.Start()
	return s
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.removeLocked(name)

	entry := &tickerEntry{interval: interval, stopCh: make(chan struct{})}
	s.tickers[name] = entry

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runSafely(name, func() error { fn(); return nil })
			case <-entry.stopCh:
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddCron registers a job on a standard five-field cron spec, for example
// "0 0 * * *" for local midnight. A job with the same name is replaced.
func (s *Scheduler) AddCron(name, spec string, fn JobFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.runSafely(name, func() error { return fn(s.ctx) })
	})
	if err != nil {
		return err
	}
	s.removeLocked(name)
	s.jobs[name] = &cronEntry{spec: spec, id: id}
	s.logger.Info("scheduler cron registered", zap.String("name", name), zap.String("spec", spec))
	return nil
}

// RunNow runs a registered cron job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	job := s.cron.Entry(e.id).Job
	if job == nil {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return true, err
	}
	job.Run()
	return true, nil
}

func (s *Scheduler) runSafely(name string, fn func() error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error("scheduler task failed", zap.String("task", name), zap.Error(err))
		return
	}
	s.logger.Debug("scheduler task done", zap.String("task", name), zap.Duration("cost", time.Since(start)))
}

// Remove stops and removes a ticker or cron task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
}

func (s *Scheduler) removeLocked(name string) {
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
	if e, ok := s.jobs[name]; ok {
		s.cron.Remove(e.id)
		delete(s.jobs, name)
	}
}

// Stop stops all tasks and waits for running cron jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// List returns every registered task sorted by name.
func (s *Scheduler) List() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tickers)+len(s.jobs))
	for name, t := range s.tickers {
		out = append(out, TaskInfo{Name: name, Kind: "ticker", Schedule: t.interval.String()})
	}
	for name, j := range s.jobs {
		out = append(out, TaskInfo{Name: name, Kind: "cron", Schedule: j.spec, Next: s.cron.Entry(j.id).Next})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}
