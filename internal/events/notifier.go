// internal/events/notifier.go
package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is an in-memory fan-out of cache change events. The storage
// layer publishes a Change after every mutation; subscription streams
// re-run their queries on each delivery.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan Change
	logger      *zap.Logger
	bufferSize  int
	closed      bool
}

// NewNotifier creates a notifier. bufferSize bounds each subscriber
// channel; a subscriber that falls behind loses intermediate events but a
// pending one always remains to trigger its re-query.
func NewNotifier(logger *zap.Logger, bufferSize int) *Notifier {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Notifier{
		subscribers: make(map[string]chan Change),
		logger:      logger.Named("change_notifier"),
		bufferSize:  bufferSize,
	}
}

// Subscription is a handle to a registered subscriber.
type Subscription struct {
	id       string
	notifier *Notifier
	ch       chan Change
}

// Events returns the subscriber's delivery channel. It is closed on
// Unsubscribe or notifier Close.
func (s *Subscription) Events() <-chan Change {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.notifier.unsubscribe(s.id)
}

// Subscribe registers a new subscriber for all change kinds.
func (n *Notifier) Subscribe() *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Change, n.bufferSize)
	if n.closed {
		close(ch)
		return &Subscription{id: id, notifier: n, ch: ch}
	}
	n.subscribers[id] = ch

	n.logger.Debug("Subscriber registered", zap.String("subscription_id", id))
	return &Subscription{id: id, notifier: n, ch: ch}
}

// Publish delivers a change to every subscriber without blocking. When a
// subscriber's buffer is full the event is dropped for that subscriber; its
// already-pending event covers the re-query.
func (n *Notifier) Publish(change Change) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	for id, ch := range n.subscribers {
		select {
		case ch <- change:
		default:
			n.logger.Debug("Subscriber buffer full, coalescing event",
				zap.String("subscription_id", id),
				zap.String("kind", string(change.Kind)))
		}
	}
}

func (n *Notifier) unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subscribers[id]; ok {
		delete(n.subscribers, id)
		close(ch)
		n.logger.Debug("Subscriber removed", zap.String("subscription_id", id))
	}
}

// Close shuts the notifier down and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subscribers {
		delete(n.subscribers, id)
		close(ch)
	}
	n.logger.Info("Change notifier closed")
}
