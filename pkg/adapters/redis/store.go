package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/automator/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "automator:groups:"

// Store implements ports.GroupStore using Redis. Each recipe is one JSON document
// holding its group records in order.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored collections.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(recipeID domain.RecipeID) string {
	return s.prefix + recipeID.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the collection to Redis.
func (s *Store) Save(ctx context.Context, recipeID domain.RecipeID, groups []domain.Group) error {
	data, err := json.Marshal(domain.Records(groups))
	if err != nil {
		return fmt.Errorf("failed to marshal groups: %w", err)
	}

	pipe := s.client.Pipeline()

	// 0 means no expiration.
	pipe.Set(ctx, s.key(recipeID), data, s.ttl)

	// Index score is the expiry time so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: recipeID.String(),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the collection from Redis. A missing key is an empty collection.
func (s *Store) Load(ctx context.Context, recipeID domain.RecipeID) ([]domain.Group, error) {
	val, err := s.client.Get(ctx, s.key(recipeID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return []domain.Group{}, nil
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var records []domain.GroupRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, fmt.Errorf("%w: recipe %d: %w", domain.ErrInvalidRecord, recipeID, err)
	}

	groups, err := domain.GroupsFromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, err)
	}
	return groups, nil
}

// Delete removes the collection.
func (s *Store) Delete(ctx context.Context, recipeID domain.RecipeID) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(recipeID))
	pipe.ZRem(ctx, s.indexKey(), recipeID.String())

	_, err := pipe.Exec(ctx)
	return err
}

// List returns recipes with a live collection, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]domain.RecipeID, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired recipes: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]domain.RecipeID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt recipe index entry %q: %w", m, err)
		}
		recipes = append(recipes, domain.RecipeID(id))
	}
	return recipes, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
