// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"time"
)

// Job represents a task that runs at a fixed interval and never overlaps with itself
// (singleton mode).
type Job struct {
	interval time.Duration
	task     func(context.Context)
}

// New creates a new Job with the given interval and task.
func New(interval time.Duration, task func(context.Context)) *Job {
	return &Job{
		interval: interval,
		task:     task,
	}
}

// Interval returns the tick interval of the job.
func (j *Job) Interval() time.Duration {
	return j.interval
}

// Start executes the job on every tick until ctx is cancelled. If a tick fires while a previous
// run is still executing, that tick is skipped. Start returns once the last run has finished.
func (j *Job) Start(ctx context.Context) {
	if j.task == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// sem is a 1-slot semaphore that guards "is a run in progress?"
	sem := make(chan struct{}, 1)
	defer func() { sem <- struct{}{} }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				go func() {
					defer func() { <-sem }()
					runCtx, cancel := context.WithCancel(ctx)
					defer cancel()
					j.task(runCtx)
				}()
			default:
			}
		}
	}
}

// Go runs Start in its own goroutine. The returned channel is closed once the job stopped.
func (j *Job) Go(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Start(ctx)
	}()
	return done
}
