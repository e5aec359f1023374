// Package notifier provides a topic-keyed callback registry used to signal
// resource completion.
package notifier

import "sync"

// Notifier holds an ordered list of pending callbacks per topic.
// Publishing a topic drains its list and runs every callback once, in
// registration order.
type Notifier struct {
	mu     sync.Mutex
	topics map[string][]func()
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		topics: make(map[string][]func()),
	}
}

// Subscribe appends fn to the topic's pending list. A nil fn is ignored.
func (n *Notifier) Subscribe(topic string, fn func()) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.topics[topic] = append(n.topics[topic], fn)
	n.mu.Unlock()
}

// Publish runs and clears every callback pending on topic.
// The list is detached before any callback runs, so callbacks that
// subscribe to the same topic land in a fresh list for the next publish.
func (n *Notifier) Publish(topic string) {
	n.mu.Lock()
	fns := n.topics[topic]
	delete(n.topics, topic)
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Clear drops every callback pending on topic without running it.
func (n *Notifier) Clear(topic string) {
	n.mu.Lock()
	delete(n.topics, topic)
	n.mu.Unlock()
}

// Pending returns the number of callbacks waiting on topic.
func (n *Notifier) Pending(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.topics[topic])
}
