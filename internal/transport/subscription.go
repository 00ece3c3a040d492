package transport

import "sync/atomic"

// Subscription is the handle for one open topic. It is owned by the view that
// created it and must be closed when that view goes away.
type Subscription struct {
	conn       *Conn
	topic      Topic
	identifier string
	handler    Handler
	closed     atomic.Bool
}

// Topic returns the topic this subscription is bound to.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Close releases the subscription. Idempotent: every call after the first is
// a no-op, so teardown paths that may run more than once stay safe.
func (s *Subscription) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.conn.unsubscribe(s.identifier)
}
