package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired by Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes archive writes across assistant instances sharing a store.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// ttl bounds how long a crashed holder can keep the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
