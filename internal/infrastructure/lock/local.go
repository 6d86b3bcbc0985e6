package lock

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
)

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits on them.
type LocalLocker struct {
	mu      sync.Mutex
	keys    map[string]*keyLock
	timeout time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		keys:    make(map[string]*keyLock),
		timeout: timeout,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	kl := l.ref(key)

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, domainErrors.ErrLockContention
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.unref(key, kl)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}
