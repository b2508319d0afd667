// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lockmap

import "sync"

type holderLock struct {
	holders int
	mu      sync.Mutex
}

// Lockmap hands out one mutex per key. Entries are created on first use
// and dropped when the last holder unlocks, so the map only ever contains
// keys that are currently locked or waited on.
type Lockmap struct {
	l sync.Mutex
	m map[string]*holderLock
}

func New(initSize int) *Lockmap {
	return &Lockmap{
		m: make(map[string]*holderLock, initSize),
	}
}

func (l *Lockmap) Lock(key string) {
	l.l.Lock()
	hl, ok := l.m[key]
	if !ok {
		hl = &holderLock{}
		l.m[key] = hl
	}
	hl.holders++
	l.l.Unlock()

	hl.mu.Lock()
}

func (l *Lockmap) Unlock(key string) {
	l.l.Lock()
	hl := l.m[key]
	hl.holders--
	if hl.holders == 0 {
		delete(l.m, key)
	}
	l.l.Unlock()

	hl.mu.Unlock()
}

// LockAll locks every key in [keys] in order. Callers must pass keys
// in a consistent (sorted) order to avoid deadlocks.
func (l *Lockmap) LockAll(keys []string) {
	for _, k := range keys {
		l.Lock(k)
	}
}

// UnlockAll releases locks taken by [LockAll].
func (l *Lockmap) UnlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.Unlock(keys[i])
	}
}
