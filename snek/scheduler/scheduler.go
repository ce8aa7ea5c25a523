// Package scheduler runs deferred tasks keyed by an id, such as the automatic pardon of an
// infraction when it expires.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Task is a unit of deferred work. Once a task has started, cancelling it no longer
// stops it.
type Task func(ctx context.Context) error

// Scheduler schedules and tracks the execution of tasks as one-time gocron jobs. Every task
// needs an id that is unique among the tasks scheduled at the same time. An error or panic
// of a task is logged when the task is done.
type Scheduler[K comparable] struct {
	log  *slog.Logger
	cron gocron.Scheduler

	mu     sync.Mutex
	tasks  map[K]*scheduled
	closed bool
	wg     sync.WaitGroup
}

// scheduled is a task waiting for or running its time.
type scheduled struct {
	job gocron.Job
}

// New returns a started scheduler logging under name.
func New[K comparable](log *slog.Logger, name string) (*Scheduler[K], error) {
	log = log.With("scheduler", name)
	cron, err := gocron.NewScheduler(gocron.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create scheduler %s: %w", name, err)
	}
	cron.Start()
	return &Scheduler[K]{
		log:   log,
		cron:  cron,
		tasks: make(map[K]*scheduled),
	}, nil
}

// Contains reports whether a task with id is scheduled or running.
func (s *Scheduler[K]) Contains(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// Len returns the number of tasks scheduled or running.
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Schedule runs t immediately. If a task with id is already scheduled, t is dropped.
func (s *Scheduler[K]) Schedule(id K, t Task) bool {
	return s.schedule(id, time.Time{}, t)
}

// ScheduleIn runs t after d has passed.
func (s *Scheduler[K]) ScheduleIn(d time.Duration, id K, t Task) bool {
	return s.schedule(id, time.Now().Add(d), t)
}

// ScheduleAt runs t at the time at. A time in the past runs t immediately.
func (s *Scheduler[K]) ScheduleAt(at time.Time, id K, t Task) bool {
	return s.schedule(id, at, t)
}

// Cancel stops the task with id from running. A task that has already started runs to
// completion. It reports whether a task with id was scheduled.
func (s *Scheduler[K]) Cancel(id K) bool {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if !ok {
		s.log.Debug("failed to cancel task, task not scheduled", "task", id)
		return false
	}
	_ = s.cron.RemoveJob(task.job.ID())
	s.log.Debug("cancelled task", "task", id)
	return true
}

// Close cancels every task that has not started yet and waits for the running ones.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clear(s.tasks)
	s.mu.Unlock()

	s.wg.Wait()
	if err := s.cron.Shutdown(); err != nil {
		s.log.Error("failed to shut down scheduler", "error", err)
	}
}

func (s *Scheduler[K]) schedule(id K, at time.Time, t Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.Debug("task was not scheduled, scheduler is closed", "task", id)
		return false
	}
	if _, ok := s.tasks[id]; ok {
		s.log.Debug("task was not scheduled, already scheduled", "task", id)
		return false
	}

	task := &scheduled{}
	newJob := func(start gocron.OneTimeJobStartAtOption) (gocron.Job, error) {
		return s.cron.NewJob(
			gocron.OneTimeJob(start),
			gocron.NewTask(func() { s.run(id, task, t) }),
			gocron.WithName(fmt.Sprint(id)),
		)
	}
	start := gocron.OneTimeJobStartImmediately()
	if at.After(time.Now()) {
		start = gocron.OneTimeJobStartDateTime(at)
	}
	job, err := newJob(start)
	if err != nil && !at.After(time.Now()) {
		// The start time passed while the job was created.
		job, err = newJob(gocron.OneTimeJobStartImmediately())
	}
	if err != nil {
		s.log.Error("failed to schedule task", "task", id, "error", err)
		return false
	}
	task.job = job
	s.tasks[id] = task

	s.log.Debug("scheduled task", "task", id, "at", at)
	return true
}

// run executes t unless task was cancelled or the scheduler closed in the meantime.
func (s *Scheduler[K]) run(id K, task *scheduled, t Task) {
	s.mu.Lock()
	if s.closed || s.tasks[id] != task {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer s.done(id, task)

	if err := call(context.Background(), t); err != nil {
		s.log.Error("error in task", "task", id, "error", err)
	}
}

// done removes task from the scheduler if it is still the one mapped to id. If it is not, a
// new task was most likely scheduled with the same id after this one was cancelled.
func (s *Scheduler[K]) done(id K, task *scheduled) {
	defer func() {
		_ = s.cron.RemoveJob(task.job.ID())
	}()
	s.mu.Lock()
	defer s.mu.Unlock()

	switch current, ok := s.tasks[id]; {
	case ok && current == task:
		delete(s.tasks, id)
	case ok:
		s.log.Debug("task has changed, another task was likely scheduled with the same id", "task", id)
	}
}

func call(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t(ctx)
}
