package service

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

const defaultStripes = 64

// keyLock serializes writes per (user, date) key using a fixed set of
// fnv-sharded mutexes. Two sessions writing the same day's entries take the
// same stripe; the second observes the first's committed state. Locks are
// held only for the duration of one write transaction.
type keyLock struct {
	stripes []sync.Mutex
}

func newKeyLock(n int) *keyLock {
	if n <= 0 {
		n = defaultStripes
	}
	return &keyLock{stripes: make([]sync.Mutex, n)}
}

// dayKey builds the canonical lock key for one user's day.
func dayKey(userID int64, date string) string {
	return fmt.Sprintf("%d|%s", userID, date)
}

func (l *keyLock) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(l.stripes)
}

func (l *keyLock) Lock(key string) {
	l.stripes[l.index(key)].Lock()
}

func (l *keyLock) Unlock(key string) {
	l.stripes[l.index(key)].Unlock()
}

// LockAll acquires the stripes for a set of keys in index order, so batch
// imports touching several days cannot deadlock against single writes.
// It returns the release function.
func (l *keyLock) LockAll(keys []string) func() {
	seen := make(map[int]struct{}, len(keys))
	var idx []int
	for _, k := range keys {
		i := l.index(k)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			l.stripes[idx[j]].Unlock()
		}
	}
}
