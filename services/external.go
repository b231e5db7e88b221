package services

import (
	"context"
	"sync"
)

// MembershipOracle checks whether a user belongs to a channel. Failures
// and timeouts are reported as errors and treated as not-a-member by
// callers.
type MembershipOracle interface {
	IsMember(ctx context.Context, channel string, userID int64) (bool, error)
}

// Notifier delivers a message to a user or a named channel. Fire and
// forget: implementations log failures and swallow them.
type Notifier interface {
	Send(userID int64, text string)
	SendToChannel(channel string, text string)
}

// UserLocks serializes mutating operations per user so that every
// read-decide-write sequence is atomic against concurrent actions from
// the same user. One instance is shared by every service that mutates
// the ledger.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the user's mutex and returns the release func.
func (l *UserLocks) Lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
