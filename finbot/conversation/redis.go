package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "finbot:conv:"

// RedisStore keeps each conversation as a JSON value that expires after ttl.
// Per-user serialization uses an in-process lock, so a single bot instance is assumed.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	locks  *keyedLock
	now    func() time.Time
}

// NewRedisStore wraps client. A zero ttl stores keys without expiry.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  newKeyedLock(),
		now:    time.Now,
	}
}

// Get returns the stored state or an idle state when the key is absent.
func (r *RedisStore) Get(ctx context.Context, userID string) (State, error) {
	data, err := r.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle(), nil
	}
	if err != nil {
		return Idle(), fmt.Errorf("%w: get user=%s: %v", ErrUnavailable, userID, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return Idle(), fmt.Errorf("decode conversation user=%s: %w", userID, err)
	}
	return st.Normalize(), nil
}

// Set writes st with the store TTL; an idle state deletes the key.
func (r *RedisStore) Set(ctx context.Context, userID string, st State) error {
	unlock := r.locks.lock(userID)
	defer unlock()

	_, err := r.write(ctx, userID, st)
	return err
}

// Clear deletes the user's key once no Update for that user is running.
func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	unlock := r.locks.lock(userID)
	defer unlock()

	return r.del(ctx, userID)
}

func (r *RedisStore) del(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: delete user=%s: %v", ErrUnavailable, userID, err)
	}
	return nil
}

// Update reads, applies fn and writes back while holding the user's lock.
func (r *RedisStore) Update(ctx context.Context, userID string, fn func(State) State) (State, error) {
	unlock := r.locks.lock(userID)
	defer unlock()

	cur, err := r.Get(ctx, userID)
	if err != nil {
		return cur, err
	}
	return r.write(ctx, userID, fn(cur))
}

func (r *RedisStore) write(ctx context.Context, userID string, st State) (State, error) {
	st = st.Normalize()
	st.UpdatedAt = r.now()
	if st.IsIdle() {
		return st, r.del(ctx, userID)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return st, fmt.Errorf("encode conversation user=%s: %w", userID, err)
	}
	if err := r.client.Set(ctx, redisKey(userID), data, r.ttl).Err(); err != nil {
		return st, fmt.Errorf("%w: set user=%s: %v", ErrUnavailable, userID, err)
	}
	return st, nil
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}
