// services/locks.go
package services

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// ParticipantLocks serializes read-modify-write flows for one participant id
// inside this process. Different participants never contend.
type ParticipantLocks struct {
	m *xsync.Map[int64, *sync.Mutex]
}

func NewParticipantLocks() *ParticipantLocks {
	return &ParticipantLocks{m: xsync.NewMap[int64, *sync.Mutex]()}
}

// Lock acquires the mutex for id and returns its unlock func.
func (l *ParticipantLocks) Lock(id int64) func() {
	mu, _ := l.m.LoadOrStore(id, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}
