// Package scheduler runs a fixed set of periodic tasks off a single tick.
package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// Task is a periodic callback. Period must be a positive multiple of the
// scheduler quantum. Action runs synchronously from Advance and must return
// promptly.
type Task struct {
	Name   string
	Period time.Duration
	Action func()

	elapsed time.Duration
	runs    uint64
}

// Elapsed returns the time accumulated since the task last ran.
func (t Task) Elapsed() time.Duration {
	return t.elapsed
}

// Runs returns how many times the task has been invoked.
func (t Task) Runs() uint64 {
	return t.runs
}

// Scheduler holds a task table that is fixed at construction.
type Scheduler struct {
	quantum time.Duration
	tasks   []Task
}

// New builds a scheduler. The task table is copied and never grows.
func New(quantum time.Duration, tasks ...Task) (*Scheduler, error) {
	if quantum <= 0 {
		return nil, errors.New("quantum must be positive")
	}
	if len(tasks) == 0 {
		return nil, errors.New("no tasks")
	}
	table := make([]Task, len(tasks))
	for i, t := range tasks {
		if t.Action == nil {
			return nil, fmt.Errorf("task %d (%s): nil action", i, t.Name)
		}
		if t.Period <= 0 || t.Period%quantum != 0 {
			return nil, fmt.Errorf("task %d (%s): period %v is not a positive multiple of quantum %v", i, t.Name, t.Period, quantum)
		}
		t.elapsed = 0
		t.runs = 0
		table[i] = t
	}
	return &Scheduler{quantum: quantum, tasks: table}, nil
}

// Quantum returns the scheduler base interval.
func (s *Scheduler) Quantum() time.Duration {
	return s.quantum
}

// Advance moves every task forward one quantum and runs the ones that are
// due, in registration order.
func (s *Scheduler) Advance() {
	for i := range s.tasks {
		t := &s.tasks[i]
		t.elapsed += s.quantum
		if t.elapsed >= t.Period {
			t.Action()
			t.runs++
			t.elapsed = 0
		}
	}
}

// Len returns the number of tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Task returns a copy of the i-th task.
func (s *Scheduler) Task(i int) Task {
	return s.tasks[i]
}
