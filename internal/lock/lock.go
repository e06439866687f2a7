package lock

import "context"

// SweepLock serializes sweep runs across processes. Acquire returns ok=false
// when another holder has the lease; release is safe to call regardless.
type SweepLock interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

type noopLock struct{}

func (noopLock) Acquire(ctx context.Context) (func(), bool, error) {
	return func() {}, true, nil
}

// Noop returns a lock that always grants; used when the Redis lease is
// disabled and accrual-event uniqueness alone guards double credits.
func Noop() SweepLock {
	return noopLock{}
}
