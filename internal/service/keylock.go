package service

import "sync"

const lockStripes = 64

// KeyLock serializes settlement commits and rate-cache swaps per entity id.
// Striped so unrelated creators/payers proceed in parallel.
type KeyLock struct {
	stripes [lockStripes]sync.Mutex
}

func NewKeyLock() *KeyLock { return &KeyLock{} }

func (l *KeyLock) stripe(id uint) int { return int(id % lockStripes) }

// lockPair acquires the stripes for both ids in index order to avoid
// deadlock between two settlements touching the same pair.
func (l *KeyLock) lockPair(a, b uint) func() {
	i, j := l.stripe(a), l.stripe(b)
	if i > j {
		i, j = j, i
	}
	l.stripes[i].Lock()
	if j != i {
		l.stripes[j].Lock()
	}
	return func() {
		if j != i {
			l.stripes[j].Unlock()
		}
		l.stripes[i].Unlock()
	}
}

func (l *KeyLock) lock(id uint) func() {
	i := l.stripe(id)
	l.stripes[i].Lock()
	return l.stripes[i].Unlock
}
