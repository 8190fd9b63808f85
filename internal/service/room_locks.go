package service

import "sync"

// roomLocks serializes the check-then-write sections of booking operations
// per room. Two concurrent requests for the same room cannot both pass the
// availability check and commit; requests for different rooms do not contend.
type roomLocks struct {
	locks sync.Map // roomID -> *sync.Mutex
}

func (l *roomLocks) lock(roomID uint) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(roomID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m
}
