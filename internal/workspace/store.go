package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists selections in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A zero ttl keeps selections until cleared.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Load returns the saved selection of userID.
func (s *Store) Load(ctx context.Context, userID int64) (Selection, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Selection{}, ErrNoSelection
		}
		return Selection{}, fmt.Errorf("workspace: load: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return Selection{}, fmt.Errorf("workspace: decode: %w", err)
	}
	return sel, nil
}

// Save stores sel, stamping UpdatedAt when unset.
func (s *Store) Save(ctx context.Context, sel Selection) error {
	if sel.UpdatedAt.IsZero() {
		sel.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sel.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("workspace: save: %w", err)
	}
	return nil
}

// Clear removes the selection of userID.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("workspace: clear: %w", err)
	}
	return nil
}

func (s *Store) key(userID int64) string {
	return "bizos:workspace:" + strconv.FormatInt(userID, 10)
}
