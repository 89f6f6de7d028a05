// internal/events/notifier_test.go
package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNotifierDeliversToAllSubscribers(t *testing.T) {
	n := NewNotifier(zaptest.NewLogger(t), 4)
	defer n.Close()

	subA := n.Subscribe()
	subB := n.Subscribe()

	n.Publish(NewChange(TransactionUpserted, "tx-1"))

	for _, sub := range []*Subscription{subA, subB} {
		select {
		case change := <-sub.Events():
			assert.Equal(t, TransactionUpserted, change.Kind)
			assert.Equal(t, "tx-1", change.TransactionID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for change")
		}
	}
}

func TestNotifierCoalescesWhenSubscriberLags(t *testing.T) {
	n := NewNotifier(zaptest.NewLogger(t), 1)
	defer n.Close()

	sub := n.Subscribe()

	// Buffer size 1: the second publish is dropped for this subscriber,
	// but one pending event remains to trigger its re-query.
	n.Publish(NewChange(TransactionUpserted, "tx-1"))
	n.Publish(NewChange(TransactionUpserted, "tx-2"))

	change := <-sub.Events()
	assert.Equal(t, "tx-1", change.TransactionID)

	select {
	case extra := <-sub.Events():
		t.Fatalf("expected coalesced delivery, got %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier(zaptest.NewLogger(t), 1)
	defer n.Close()

	sub := n.Subscribe()
	sub.Unsubscribe()

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	n.Publish(NewChange(CacheCleared, ""))
}

func TestCloseTerminatesAllSubscriptions(t *testing.T) {
	n := NewNotifier(zaptest.NewLogger(t), 1)

	subA := n.Subscribe()
	subB := n.Subscribe()
	n.Close()

	_, openA := <-subA.Events()
	_, openB := <-subB.Events()
	require.False(t, openA)
	require.False(t, openB)

	// Subscribing to a closed notifier yields a closed channel.
	sub := n.Subscribe()
	_, open := <-sub.Events()
	assert.False(t, open)
}
