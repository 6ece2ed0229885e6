package usecase

import (
	"context"
	"sync"
)

// keyedMutex serializes work per key. Entries are dropped when nobody holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock waits for the key and returns the release function. It gives up when ctx is done.
func (x *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	x.mu.Lock()
	l, ok := x.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		x.locks[key] = l
	}
	l.refs++
	x.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		x.unref(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			x.unref(key, l)
		})
	}, nil
}

func (x *keyedMutex) unref(key string, l *keyedLock) {
	x.mu.Lock()
	defer x.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(x.locks, key)
	}
}

func (x *keyedMutex) size() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.locks)
}
