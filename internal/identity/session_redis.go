package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "uniconnect:session:"
const sessionUserPrefix = "uniconnect:session_user:"

// RedisSessionStore keeps sessions in redis with TTL matching expiry, so
// restarts do not log everyone out.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Put(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sess)

	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)

	if ttl <= 0 {
		return nil
	}

	err = s.rdb.Set(ctx, sessionKeyPrefix+sess.ID, data, ttl).Err()

	if err != nil {
		return err
	}

	// secondary index for logout-everywhere
	return s.rdb.SAdd(ctx, sessionUserPrefix+sess.UserID, sess.ID).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()

	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}

	if err != nil {
		return Session{}, err
	}

	var sess Session

	err = json.Unmarshal(data, &sess)

	if err != nil {
		return Session{}, err
	}

	if sess.Expired(time.Now()) {
		return Session{}, ErrSessionNotFound
	}

	return sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func (s *RedisSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := s.rdb.SMembers(ctx, sessionUserPrefix+userID).Result()

	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	keys := make([]string, 0, len(ids)+1)

	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, sessionUserPrefix+userID)

	return s.rdb.Del(ctx, keys...).Err()
}
