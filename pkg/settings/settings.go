// Package settings serves per-chat settings with a bounded read cache in
// front of the store, so the hot path of every incoming search does not hit
// disk.
package settings

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"mediadex/pkg/models"
	"mediadex/pkg/store"
)

// DefaultCacheSize bounds the number of chats kept in memory.
const DefaultCacheSize = 512

// Service is a read-through cache over the chat settings table.
type Service struct {
	cache *lru.Cache[string, models.ChatSettings]
}

// NewService returns a Service with the given cache capacity
// (DefaultCacheSize when non-positive).
func NewService(capacity int) (*Service, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	c, err := lru.New[string, models.ChatSettings](capacity)
	if err != nil {
		return nil, err
	}
	return &Service{cache: c}, nil
}

// Get returns the chat's settings, falling back to defaults when the chat
// never stored any.
func (s *Service) Get(chatID string) (models.ChatSettings, error) {
	if v, ok := s.cache.Get(chatID); ok {
		return v, nil
	}
	v, err := store.GetChatSettings(chatID)
	if errors.Is(err, store.ErrNotFound) {
		v = models.DefaultChatSettings(chatID)
	} else if err != nil {
		return models.ChatSettings{}, err
	}
	s.cache.Add(chatID, v)
	return v, nil
}

// Update applies mutate to the chat's current settings and persists the
// result, keeping the cache coherent.
func (s *Service) Update(chatID string, mutate func(*models.ChatSettings)) (models.ChatSettings, error) {
	cur, err := s.Get(chatID)
	if err != nil {
		return models.ChatSettings{}, err
	}
	mutate(&cur)
	cur.ChatID = chatID
	if err := store.SaveChatSettings(cur); err != nil {
		return models.ChatSettings{}, err
	}
	s.cache.Add(chatID, cur)
	return cur, nil
}
