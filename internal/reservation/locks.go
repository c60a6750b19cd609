package reservation

import (
	"context"
	"sync"
)

// carLocks serializes booking writes per car. Different cars proceed in
// parallel; two writers on the same car queue up on its slot.
type carLocks struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
}

func newCarLocks() *carLocks {
	return &carLocks{slots: make(map[int64]chan struct{})}
}

func (l *carLocks) acquire(ctx context.Context, carID int64) error {
	l.mu.Lock()
	slot, ok := l.slots[carID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[carID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return conflictf("car %d is busy, try again", carID)
	}
}

func (l *carLocks) release(carID int64) {
	l.mu.Lock()
	slot := l.slots[carID]
	l.mu.Unlock()
	if slot != nil {
		<-slot
	}
}
