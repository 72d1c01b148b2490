// Package notifier provides a topic-based broadcast mechanism for SSE updates.
package notifier

import "sync"

// Topic names a kind of update.
type Topic string

const (
	// TopicSettings fires when the settings file changes.
	TopicSettings Topic = "settings"
	// TopicHistory fires when a query is recorded.
	TopicHistory Topic = "history"
)

// Notifier broadcasts update pings to listeners of a topic.
// Listeners receive an empty struct and should re-read the source of truth.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[Topic]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[Topic]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings for topic.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe(topic Topic) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	if n.listeners[topic] == nil {
		n.listeners[topic] = make(map[chan struct{}]struct{})
	}
	n.listeners[topic][ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(topic Topic, ch chan struct{}) {
	n.mu.Lock()
	if set, ok := n.listeners[topic]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(n.listeners, topic)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener of topic. A listener with a pending ping is
// skipped.
func (n *Notifier) Broadcast(topic Topic) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listeners returns the number of listeners of topic.
func (n *Notifier) Listeners(topic Topic) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[topic])
}
