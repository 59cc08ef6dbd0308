package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSlotTTL = 2 * time.Hour

var errSlotArgs = errors.New("slots: key and a positive limit are required")

// KEYS[1] counter, ARGV[1] limit, ARGV[2] ttl in ms. Returns 1 when a slot was taken.
// The TTL is refreshed on every acquire so a counter never outlives its last call by more than ttl.
var acquireSlotScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
if n > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

// KEYS[1] counter. Deletes the key once it drops to zero.
var releaseSlotScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
end
return n
`)

// RedisSlots caps live calls per campaign across instances.
// Counters expire after TTL so a crashed process cannot hold slots forever.
type RedisSlots struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s RedisSlots) Acquire(ctx context.Context, key string, limit int) (bool, error) {
	if s.Client == nil {
		return false, errNilRedis
	}
	if key == "" || limit <= 0 {
		return false, errSlotArgs
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	got, err := acquireSlotScript.Run(ctx, s.Client, []string{slotKey(key)}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return got == 1, nil
}

func (s RedisSlots) Release(ctx context.Context, key string) error {
	if s.Client == nil {
		return errNilRedis
	}
	if key == "" {
		return errSlotArgs
	}
	return releaseSlotScript.Run(ctx, s.Client, []string{slotKey(key)}).Err()
}

func slotKey(key string) string { return "slots:" + key }

// LocalSlots is the in-process equivalent of RedisSlots for single-node runs and tests.
type LocalSlots struct {
	mu    sync.Mutex
	inUse map[string]int
}

func NewLocalSlots() *LocalSlots { return &LocalSlots{inUse: map[string]int{}} }

func (s *LocalSlots) Acquire(_ context.Context, key string, limit int) (bool, error) {
	if key == "" || limit <= 0 {
		return false, errSlotArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse[key] >= limit {
		return false, nil
	}
	s.inUse[key]++
	return true, nil
}

func (s *LocalSlots) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse[key] <= 1 {
		delete(s.inUse, key)
		return nil
	}
	s.inUse[key]--
	return nil
}

// InUse reports the number of held slots for key.
func (s *LocalSlots) InUse(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse[key]
}
