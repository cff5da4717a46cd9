// Package debounce runs a task once input has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending task. Scheduling again replaces the
// task and restarts the wait.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	task    func()
	gen     uint64
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule runs task after the default delay unless rescheduled first.
func (d *Debouncer) Schedule(task func()) {
	d.ScheduleAfter(d.delay, task)
}

// ScheduleAfter is Schedule with an explicit wait.
func (d *Debouncer) ScheduleAfter(wait time.Duration, task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.task = task
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.task == nil {
		// superseded by a later Schedule, Flush or Stop
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()

	task()
}

// Flush runs the pending task now, on the calling goroutine. It reports
// whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	task := d.take()
	d.mu.Unlock()

	if task == nil {
		return false
	}
	task()
	return true
}

// Pending reports whether a task is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

// Cancel drops the pending task without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
}

// Stop drops the pending task. Later calls to Schedule are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
	d.stopped = true
}

// take cancels the timer and returns the pending task. Caller holds mu.
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	task := d.task
	d.task = nil
	return task
}
