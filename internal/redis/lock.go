package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// releaseScript deletes the lock only if this instance still owns it, so a
// release after expiry cannot drop a lock another replica has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore provides named locks shared by every replica, e.g. around corridor seeding.
type LockStore struct {
	client *redis.Client
	owner  string
}

// NewLockStore creates a LockStore with a fresh owner token for this process.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, owner: uuid.NewString()}
}

// Acquire takes the named lock for ttl. It reports false if another owner holds it.
func (s *LockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, lockPrefix+name, s.owner, ttl).Result()
}

// Release drops the named lock if this process holds it.
func (s *LockStore) Release(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, s.client, []string{lockPrefix + name}, s.owner).Err()
}
