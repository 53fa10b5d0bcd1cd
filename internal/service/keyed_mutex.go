package service

import (
	"fmt"
	"sync"

	"github.com/xiaot623/medintake/internal/domain"
)

// KeyedMutex hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	edit         sync.Mutex
	queueLengths map[string]int
	mutexes      map[string]*sync.Mutex
	// maxSize bounds the number of keys in use at once; 0 means no bound.
	maxSize int
}

func NewKeyedMutex(maxSize int) *KeyedMutex {
	return &KeyedMutex{
		queueLengths: make(map[string]int),
		mutexes:      make(map[string]*sync.Mutex),
		maxSize:      maxSize,
	}
}

// Lock blocks until key is free. It fails with domain.ErrTooManySessions
// when key is new and maxSize keys are already in use.
func (m *KeyedMutex) Lock(key string) error {
	m.edit.Lock()

	mu := m.mutexes[key]
	if mu == nil {
		if m.maxSize > 0 && len(m.mutexes) >= m.maxSize {
			m.edit.Unlock()
			return fmt.Errorf("%w: limit %d", domain.ErrTooManySessions, m.maxSize)
		}

		mu = &sync.Mutex{}
		m.mutexes[key] = mu
		m.queueLengths[key] = 0
	}

	m.queueLengths[key]++
	m.edit.Unlock()

	mu.Lock()

	return nil
}

func (m *KeyedMutex) Unlock(key string) error {
	m.edit.Lock()
	defer m.edit.Unlock()

	mu := m.mutexes[key]
	if mu == nil {
		return fmt.Errorf("key %s not locked", key)
	}

	mu.Unlock()
	m.queueLengths[key]--

	if m.queueLengths[key] == 0 {
		delete(m.mutexes, key)
		delete(m.queueLengths, key)
	}

	return nil
}

// Len returns the number of keys currently held or waited on.
func (m *KeyedMutex) Len() int {
	m.edit.Lock()
	defer m.edit.Unlock()
	return len(m.mutexes)
}
