package notifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Subscribe_Publish(t *testing.T) {
	n := New()

	var order []int
	n.Subscribe("js-a", func() { order = append(order, 1) })
	n.Subscribe("js-a", func() { order = append(order, 2) })
	n.Subscribe("js-b", func() { order = append(order, 99) })
	require.Equal(t, 2, n.Pending("js-a"))

	n.Publish("js-a")
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, n.Pending("js-a"))

	// A second publish has nothing left to run
	n.Publish("js-a")
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, n.Pending("js-b"))
}

func TestNotifier_Clear(t *testing.T) {
	n := New()

	ran := false
	n.Subscribe("css-x", func() { ran = true })
	n.Clear("css-x")
	n.Publish("css-x")

	assert.False(t, ran)
	assert.Equal(t, 0, n.Pending("css-x"))
}

func TestNotifier_NilCallback(t *testing.T) {
	n := New()
	n.Subscribe("js-a", nil)
	assert.Equal(t, 0, n.Pending("js-a"))
}

func TestNotifier_SubscribeDuringPublish(t *testing.T) {
	n := New()

	calls := 0
	n.Subscribe("js-a", func() {
		calls++
		n.Subscribe("js-a", func() { calls += 10 })
	})

	n.Publish("js-a")
	assert.Equal(t, 1, calls, "callbacks added while publishing wait for the next publish")
	assert.Equal(t, 1, n.Pending("js-a"))

	n.Publish("js-a")
	assert.Equal(t, 11, calls)
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	const numGoroutines = 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Subscribe("topic", func() {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	n.Publish("topic")
	assert.Equal(t, numGoroutines, count)
	assert.Equal(t, 0, n.Pending("topic"))
}
