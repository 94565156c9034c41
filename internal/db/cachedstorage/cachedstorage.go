// Package cachedstorage wraps a user storage with a Redis read-through cache.
// Lookups are served from Redis when possible and fall back to the wrapped
// storage when Redis fails. Saves and deletes evict the cached copy first and
// are refused when the eviction fails, so a stale user is never served.
package cachedstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usrsvc/internal/logger"
	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

const keyPrefix = "usrsvc:user:"

type storage interface {
	Save(ctx context.Context, usr *user.User) (*user.User, error)
	FindByID(ctx context.Context, userID int64) (*user.User, bool, error)
	Delete(ctx context.Context, usr *user.User) error
}

type usersCounter interface {
	Count(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type closer interface {
	Close() error
}

// CachedStorage decorates a storage with a Redis cache of users by ID.
type CachedStorage struct {
	db     storage
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr and wraps db. The connection is checked
// with a ping before returning.
func New(db storage, addr string, ttl time.Duration) (*CachedStorage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf(
			"in internal/db/cachedstorage/cachedstorage.go/New(): error while `client.Ping()` calling: %w",
			err,
		)
	}

	return NewWithClient(db, client, ttl), nil
}

// NewWithClient wraps db using an already configured Redis client.
func NewWithClient(db storage, client *redis.Client, ttl time.Duration) *CachedStorage {
	return &CachedStorage{
		db:     db,
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Save evicts the cached copy, writes through to the wrapped storage and
// caches the saved user. Nothing is written when the eviction fails.
func (s *CachedStorage) Save(ctx context.Context, usr *user.User) (*user.User, error) {
	if usr.ID != 0 {
		if err := s.evict(ctx, usr.ID); err != nil {
			return nil, err
		}
	}

	saved, err := s.db.Save(ctx, usr)
	if err != nil {
		return nil, err
	}

	s.put(ctx, saved)

	return saved, nil
}

// FindByID serves the user from Redis and falls back to the wrapped storage on a miss.
func (s *CachedStorage) FindByID(ctx context.Context, userID int64) (*user.User, bool, error) {
	cached, err := s.client.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case err == nil:
		usr := &user.User{}
		unmarshalErr := json.Unmarshal(cached, usr)
		if unmarshalErr == nil {
			return usr, true, nil
		}
		logger.Log.Debugln("Error unmarshaling the cached user:", zap.Int64("userID", userID), zap.Error(unmarshalErr))
	case !errors.Is(err, redis.Nil):
		logger.Log.Debugln("Error calling the `s.client.Get()`:", zap.Error(err))
	}

	usr, found, err := s.db.FindByID(ctx, userID)
	if err != nil || !found {
		return usr, found, err
	}

	s.put(ctx, usr)

	return usr, true, nil
}

// Delete evicts the cached copy before and after removing the user from the
// wrapped storage. The user is kept when the first eviction fails; a failed
// second eviction is reported as an error.
func (s *CachedStorage) Delete(ctx context.Context, usr *user.User) error {
	if err := s.evict(ctx, usr.ID); err != nil {
		return err
	}

	if err := s.db.Delete(ctx, usr); err != nil {
		return err
	}

	return s.evict(ctx, usr.ID)
}

// Count delegates to the wrapped storage.
func (s *CachedStorage) Count(ctx context.Context) (int64, error) {
	counter, ok := s.db.(usersCounter)
	if !ok {
		return 0, errors.New("the wrapped storage does not support users counting")
	}

	return counter.Count(ctx)
}

// Ping checks both Redis and the wrapped storage.
func (s *CachedStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}

	if p, ok := s.db.(pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Close closes the Redis client and the wrapped storage.
func (s *CachedStorage) Close() error {
	clientErr := s.client.Close()

	if c, ok := s.db.(closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}

	return clientErr
}

func (s *CachedStorage) evict(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf(
			"in internal/db/cachedstorage/cachedstorage.go/evict(): error while `s.client.Del()` calling: %w",
			err,
		)
	}

	return nil
}

// put is best effort: the key was evicted before the write, so a failed
// Set only costs a cache miss.
func (s *CachedStorage) put(ctx context.Context, usr *user.User) {
	if usr == nil {
		return
	}

	data, err := json.Marshal(usr)
	if err != nil {
		logger.Log.Debugln("Error marshaling the user for cache:", zap.Error(err))
		return
	}

	if err := s.client.Set(ctx, cacheKey(usr.ID), data, s.ttl).Err(); err != nil {
		logger.Log.Debugln("Error calling the `s.client.Set()`:", zap.Error(err))
	}
}
