package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "console:draft:"

// DraftStore keeps drafts in Redis with a sliding TTL.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore instantiates the store.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}

// Save writes the draft and refreshes its expiry.
func (s *DraftStore) Save(ctx context.Context, draft Draft) error {
	if s == nil || s.client == nil {
		return errNoDraftStore
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("orders: encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(draft.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("orders: save draft: %w", err)
	}
	return nil
}

// Get loads a draft. Expired and unknown drafts return ErrDraftNotFound.
func (s *DraftStore) Get(ctx context.Context, id uuid.UUID) (Draft, error) {
	if s == nil || s.client == nil {
		return Draft{}, errNoDraftStore
	}
	raw, err := s.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("orders: load draft: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return Draft{}, fmt.Errorf("orders: decode draft: %w", err)
	}
	return draft, nil
}

// Delete removes a draft.
func (s *DraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.client == nil {
		return errNoDraftStore
	}
	n, err := s.client.Del(ctx, draftKey(id)).Result()
	if err != nil {
		return fmt.Errorf("orders: delete draft: %w", err)
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}
