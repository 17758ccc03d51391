package client

import (
	"context"
	"sync/atomic"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// --------------------------------------------------------------------------
// Subscription States
// --------------------------------------------------------------------------

// SubscriptionState describes the lifecycle of a subscription. A
// subscription starts Active and moves exactly once to either Cancelled
// (client side) or Terminated (stream ended on the server or transport).
type SubscriptionState int32

const (
	SubscriptionActive SubscriptionState = iota
	SubscriptionCancelled
	SubscriptionTerminated
)

// String returns the string representation of a SubscriptionState.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionActive:
		return "active"
	case SubscriptionCancelled:
		return "cancelled"
	case SubscriptionTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Subscription Handle
// --------------------------------------------------------------------------

// Subscription is the handle for one change stream. Events arrive on the
// channel returned by Events; the channel is closed exactly once when the
// subscription leaves the Active state, regardless of how it ended.
type Subscription struct {
	id      uint64
	pattern string

	state  atomic.Int32
	cancel context.CancelFunc
	events chan common.SubscriptionEvent
}

// ID returns the client-local identifier of the subscription
func (s *Subscription) ID() uint64 {
	return s.id
}

// Pattern returns the key pattern the subscription was opened with
func (s *Subscription) Pattern() string {
	return s.pattern
}

// State returns the current lifecycle state
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Events returns the event channel. Events already queued before
// cancellation may still be delivered; after the channel is closed no
// further events arrive.
func (s *Subscription) Events() <-chan common.SubscriptionEvent {
	return s.events
}

// Cancel stops the subscription. Idempotent; cancelling a terminated
// subscription is a no-op.
func (s *Subscription) Cancel() {
	if s.transition(SubscriptionCancelled) {
		s.cancel()
	}
}

// transition moves the subscription out of the Active state. Returns false
// if another transition already happened.
func (s *Subscription) transition(to SubscriptionState) bool {
	return s.state.CompareAndSwap(int32(SubscriptionActive), int32(to))
}

// --------------------------------------------------------------------------
// Client Methods
// --------------------------------------------------------------------------

// Subscribe opens a change stream for keys matching pattern. Events are
// delivered in server order on the handle's channel until the subscription
// is cancelled, the client is closed or the stream terminates.
//
// Only streaming transports support subscriptions; the other adapters fail
// fast with an invalid argument error before any wire call.
func (c *KVDBClient) Subscribe(ctx context.Context, pattern string, includeDeletes bool) (*Subscription, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	// The stream lives until cancelled, so the request timeout does not
	// apply here. The caller's context still bounds the whole stream.
	subCtx, cancel := context.WithCancel(ctx)

	upstream, err := c.transport.Subscribe(subCtx, pattern, includeDeletes)
	if err != nil {
		cancel()
		return nil, common.WrapContextError(err)
	}

	sub := &Subscription{
		id:      c.nextSubID.Add(1),
		pattern: pattern,
		cancel:  cancel,
		events:  make(chan common.SubscriptionEvent),
	}
	c.subscriptions.Store(sub.id, sub)
	c.metrics.subscriptionOpened()

	go c.pumpSubscription(subCtx, sub, upstream)

	Logger.Debugf("subscription %d opened for pattern %q", sub.id, pattern)
	return sub, nil
}

// CancelSubscription cancels the live subscription with the given id.
// Returns false if no subscription with that id is live.
func (c *KVDBClient) CancelSubscription(id uint64) bool {
	sub, found := c.subscriptions.Load(id)
	if !found {
		return false
	}
	sub.Cancel()
	return true
}

// ActiveSubscriptions returns the number of subscriptions that have not yet
// been cancelled or terminated
func (c *KVDBClient) ActiveSubscriptions() int {
	count := 0
	c.subscriptions.Range(func(_ uint64, sub *Subscription) bool {
		if sub.State() == SubscriptionActive {
			count++
		}
		return true
	})
	return count
}

// pumpSubscription forwards events from the transport stream to the handle
// until the stream ends or the subscription is cancelled
func (c *KVDBClient) pumpSubscription(ctx context.Context, sub *Subscription, upstream <-chan common.SubscriptionEvent) {
	// The registry entry goes before the channel closes, so a consumer that
	// observes the close never finds a stale entry.
	defer func() {
		sub.transition(SubscriptionTerminated)
		sub.cancel()
		c.subscriptions.Delete(sub.id)
		close(sub.events)
		c.metrics.subscriptionClosed()
		Logger.Debugf("subscription %d closed (%s)", sub.id, sub.State())
	}()

	for {
		select {
		case ev, ok := <-upstream:
			if !ok {
				return
			}
			select {
			case sub.events <- ev:
				c.metrics.subscriptionEvent()
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
