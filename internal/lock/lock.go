// Package lock serializes writers of a user's behavior model.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned when acquiring from a locker that has been closed.
var ErrClosed = errors.New("locker closed")

// Locker grants exclusive access to a key until release is called.
// Acquire blocks until the lock is held or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// UserKey returns the lock key guarding a user's behavior model.
func UserKey(userID int64) string {
	return fmt.Sprintf("spice:lock:user:%d", userID)
}

// MemoryLocker is an in-process Locker backed by one-slot channels.
// A key's slot lives only while someone holds or waits for it.
type MemoryLocker struct {
	slots map[string]*memorySlot
	mu    sync.Mutex
}

type memorySlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*memorySlot)}
}

// Acquire implements Locker.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &memorySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, slot)
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.unref(key, slot)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, slot *memorySlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// held returns the number of keys with a holder or waiter.
func (l *MemoryLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
