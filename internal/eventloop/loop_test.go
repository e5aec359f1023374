package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/resload/internal/testutil"
)

func TestLoop_Tick_DefersNestedTasks(t *testing.T) {
	l := New(testutil.NewTestLogger(t))

	var order []string
	l.Defer(func() {
		order = append(order, "first")
		l.Defer(func() { order = append(order, "nested") })
	})
	l.Defer(func() { order = append(order, "second") })

	assert.Equal(t, 2, l.Tick())
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, l.Len())

	assert.Equal(t, 1, l.Tick())
	assert.Equal(t, []string{"first", "second", "nested"}, order)
}

func TestLoop_Drain(t *testing.T) {
	l := New(nil)

	depth := 0
	var step func()
	step = func() {
		depth++
		if depth < 5 {
			l.Defer(step)
		}
	}
	l.Defer(step)

	assert.Equal(t, 5, l.Drain())
	assert.Equal(t, 5, depth)
	assert.Equal(t, 0, l.Drain())
}

func TestLoop_PanicIsContained(t *testing.T) {
	l := New(testutil.NewTestLogger(t))

	ran := false
	l.Defer(func() { panic("boom") })
	l.Defer(func() { ran = true })

	assert.Equal(t, 2, l.Tick())
	assert.True(t, ran)
}

func TestLoop_RunUntil(t *testing.T) {
	l := New(nil)

	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Defer(func() { count++ })
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := l.RunUntil(ctx, func() bool { return count == 3 })
	require.NoError(t, err)
	wg.Wait()
	assert.Equal(t, 3, count)
}

func TestLoop_RunUntil_Timeout(t *testing.T) {
	l := New(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.RunUntil(ctx, func() bool { return false })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_Do(t *testing.T) {
	l := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	value := 0
	require.NoError(t, l.Do(context.Background(), func() { value = 42 }))
	assert.Equal(t, 42, value)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_Do_Stopped(t *testing.T) {
	l := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, err, context.Canceled)
}
