package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes edits of one recipe across service replicas. The
// in-process recipe lock of the group service is taken first; this one guards the
// shared store.
type DistributedLocker interface {
	// Lock blocks until key (the recipe id) is held or ctx is done. The lock expires
	// after ttl if the holder dies. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
