package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDriverLock attempts to lock the given driver. It returns the token
// needed to release the lock, or an empty token if the lock is already held.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, driverLockKey(driverID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseDriverLock releases the lock if token still owns it. A lock that
// expired and was taken by someone else is left alone.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{driverLockKey(driverID)}, token).Err()
}

func driverLockKey(driverID string) string {
	return fmt.Sprintf("lock:driver:%s", driverID)
}
