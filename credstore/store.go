package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the credential store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNoRecord is returned by Load when no credential record is persisted.
var ErrNoRecord = errors.New("no credential record")

// ErrRecordCorrupt is returned by Load when a persisted record fails to
// decode or violates its variant invariants.
var ErrRecordCorrupt = errors.New("credential record corrupt")

// ErrArtifactNotFound is returned by LoadArtifact for an absent artifact.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store is the Redis-backed credential store. One Store manages exactly one
// credential record plus the per-user artifact cache.
type Store struct {
	redis       redis.UniversalClient
	prefix      string
	artifactTTL time.Duration
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets
// the key namespace; artifactTTL bounds how long cached per-user artifacts
// live (zero means no expiry).
func NewStore(rdb redis.UniversalClient, prefix string, artifactTTL time.Duration) *Store {
	if prefix == "" {
		prefix = "gosession"
	}
	return &Store{
		redis:       rdb,
		prefix:      prefix,
		artifactTTL: artifactTTL,
	}
}

func (s *Store) recordKey() string {
	return s.prefix + ":record"
}

func (s *Store) artifactKey(ownerKey, name string) string {
	return s.prefix + ":artifact:" + ownerKey + ":" + name
}

func (s *Store) artifactIndexKey(ownerKey string) string {
	return s.prefix + ":artifacts:" + ownerKey
}

// Save persists the record as a single SET of the encoded blob. The write is
// atomic at the key level, which is what makes Load all-or-nothing.
//
// Save is idempotent: re-saving an identical record is a no-op observationally.
func (s *Store) Save(ctx context.Context, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.recordKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load retrieves and decodes the persisted record. Absence yields
// [ErrNoRecord]; a blob that fails decoding or validation yields
// [ErrRecordCorrupt] and should be treated by the caller as equivalent to
// absent (after clearing).
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.redis.Get(ctx, s.recordKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	r, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return r, nil
}

// Clear removes the credential record and, when ownerKey is non-empty, every
// cached artifact belonging to that identity. Clear is idempotent: clearing
// an empty store succeeds.
func (s *Store) Clear(ctx context.Context, ownerKey string) error {
	if err := s.redis.Del(ctx, s.recordKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ownerKey == "" {
		return nil
	}
	return s.PurgeArtifacts(ctx, ownerKey)
}

// SaveArtifact caches a per-user artifact under the owner's namespace and
// registers it in the owner's index set so PurgeArtifacts can find it.
func (s *Store) SaveArtifact(ctx context.Context, ownerKey, name string, value []byte) error {
	key := s.artifactKey(ownerKey, name)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, s.artifactTTL)
		pipe.SAdd(ctx, s.artifactIndexKey(ownerKey), key)
		if s.artifactTTL > 0 {
			pipe.Expire(ctx, s.artifactIndexKey(ownerKey), s.artifactTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// LoadArtifact retrieves a cached per-user artifact.
func (s *Store) LoadArtifact(ctx context.Context, ownerKey, name string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.artifactKey(ownerKey, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

// PurgeArtifacts removes every cached artifact belonging to ownerKey along
// with the index set. An identity switch must call this for the previous
// owner before the new session is published.
func (s *Store) PurgeArtifacts(ctx context.Context, ownerKey string) error {
	indexKey := s.artifactIndexKey(ownerKey)

	members, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			pipe.Del(ctx, members...)
		}
		pipe.Del(ctx, indexKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping verifies Redis connectivity and reports the round-trip time.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
