package upstream

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is the shared health record. The monitor is the only writer; the
// request path and the status endpoint read it without coordination beyond
// atomic loads. A reader may observe a value up to one check interval stale.
type State struct {
	healthy      atomic.Bool
	failCount    atomic.Uint32
	recoverCount atomic.Uint32

	mutex             sync.Mutex
	failoverStartedAt time.Time
}

// Snapshot is a point-in-time copy of the health record.
type Snapshot struct {
	PrimaryHealthy    bool
	FailCount         uint32
	RecoverCount      uint32
	FailoverStartedAt time.Time
}

// NewState creates the health record assuming the primary is healthy.
// There is no persistence: a restart always starts here.
func NewState() *State {
	s := &State{}
	s.healthy.Store(true)
	return s
}

// PrimaryHealthy reports the current routing decision with a single
// atomic load.
func (s *State) PrimaryHealthy() bool {
	return s.healthy.Load()
}

// FailCount returns the consecutive probe failures observed while healthy.
func (s *State) FailCount() uint32 {
	return s.failCount.Load()
}

// RecoverCount returns the consecutive probe successes observed while
// unhealthy.
func (s *State) RecoverCount() uint32 {
	return s.recoverCount.Load()
}

// IncrementFail records one more consecutive probe failure and returns the
// new count. Only meaningful while healthy.
func (s *State) IncrementFail() uint32 {
	return s.failCount.Add(1)
}

// IncrementRecover records one more consecutive probe success and returns
// the new count. Only meaningful while unhealthy.
func (s *State) IncrementRecover() uint32 {
	return s.recoverCount.Add(1)
}

// ResetFail clears partial failure accumulation; a single success cancels
// progress toward the fail threshold.
func (s *State) ResetFail() {
	s.failCount.Store(0)
}

// ResetRecover clears partial recovery accumulation; a single failure
// cancels progress toward the recover threshold.
func (s *State) ResetRecover() {
	s.recoverCount.Store(0)
}

// MarkUnhealthy transitions to backup routing: flips the flag, zeroes the
// recover counter and stamps the failover start time. Returns false if
// already unhealthy.
func (s *State) MarkUnhealthy(now time.Time) bool {
	if !s.healthy.CompareAndSwap(true, false) {
		return false
	}

	s.recoverCount.Store(0)

	s.mutex.Lock()
	s.failoverStartedAt = now
	s.mutex.Unlock()

	return true
}

// MarkHealthy transitions back to primary routing: flips the flag, zeroes
// both counters and clears the failover start time. Returns the downtime
// since MarkUnhealthy and whether a transition actually happened.
func (s *State) MarkHealthy(now time.Time) (time.Duration, bool) {
	if !s.healthy.CompareAndSwap(false, true) {
		return 0, false
	}

	s.failCount.Store(0)
	s.recoverCount.Store(0)

	s.mutex.Lock()
	started := s.failoverStartedAt
	s.failoverStartedAt = time.Time{}
	s.mutex.Unlock()

	if started.IsZero() {
		return 0, true
	}

	return now.Sub(started), true
}

// FailoverStartedAt returns the time the current failover began, or the
// zero time when routing to primary.
func (s *State) FailoverStartedAt() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.failoverStartedAt
}

// Snapshot copies the current record for the status endpoint.
func (s *State) Snapshot() Snapshot {
	s.mutex.Lock()
	started := s.failoverStartedAt
	s.mutex.Unlock()

	return Snapshot{
		PrimaryHealthy:    s.healthy.Load(),
		FailCount:         s.failCount.Load(),
		RecoverCount:      s.recoverCount.Load(),
		FailoverStartedAt: started,
	}
}
