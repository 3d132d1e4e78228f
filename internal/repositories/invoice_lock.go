package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-remit/internal/logger"
)

// ErrLockNotHeld is returned by release when the lock expired or was taken over.
var ErrLockNotHeld = errors.New("invoice lock not held")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultLockRetryInterval = 50 * time.Millisecond

// InvoiceLockRepository serializes mutations of one transaction across
// goroutines and service instances using a Redis key per invoice.
type InvoiceLockRepository struct {
	client        redis.UniversalClient
	ttl           time.Duration // lock expiry, bounds how long a crashed holder blocks others
	retryInterval time.Duration
}

// NewInvoiceLockRepository creates a lock repository with the given lock TTL.
func NewInvoiceLockRepository(client redis.UniversalClient, ttl time.Duration) *InvoiceLockRepository {
	return &InvoiceLockRepository{
		client:        client,
		ttl:           ttl,
		retryInterval: defaultLockRetryInterval,
	}
}

func lockKey(invoiceID string) string {
	return fmt.Sprintf("lock:invoice:%s", invoiceID)
}

// Lock blocks until the invoice lock is acquired or ctx is done.
// The returned function releases the lock.
func (r *InvoiceLockRepository) Lock(ctx context.Context, invoiceID string) (func(), error) {
	key := lockKey(invoiceID)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			logger.Log.Errorw("failed to acquire invoice lock", "key", key, "error", err)
			return nil, err
		}
		if ok {
			logger.Log.Debugw("invoice lock acquired", "key", key)
			return func() {
				if err := r.release(key, token); err != nil {
					logger.Log.Warnw("failed to release invoice lock", "key", key, "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryInterval):
		}
	}
}

// release deletes the key only if it still holds our token. It uses a fresh
// context so a cancelled caller still frees the lock.
func (r *InvoiceLockRepository) release(key, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Int64()
	logger.Log.Infow(
		"invoice lock released",
		"key", key,
		"result", n,
		"error", err,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
