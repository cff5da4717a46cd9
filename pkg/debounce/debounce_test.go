package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := New(30 * time.Millisecond)
	var runs, last atomic.Int32

	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Schedule(func() {
			runs.Add(1)
			last.Store(n)
		})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_FlushRunsImmediately(t *testing.T) {
	d := New(time.Hour)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	assert.True(t, d.Pending())

	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Flush())
}

func TestDebouncer_StopDropsTask(t *testing.T) {
	d := New(10 * time.Millisecond)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(1) })
	d.Stop()
	d.Schedule(func() { runs.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, runs.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_ScheduleAfterOverridesDelay(t *testing.T) {
	d := New(time.Hour)
	done := make(chan struct{})

	d.ScheduleAfter(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestDebouncer_CancelKeepsAccepting(t *testing.T) {
	d := New(5 * time.Millisecond)
	var runs atomic.Int32

	d.Schedule(func() { runs.Add(10) })
	d.Cancel()
	d.Schedule(func() { runs.Add(1) })

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
}
