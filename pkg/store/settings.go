package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"mediadex/pkg/models"
)

func settingsKey(chatID string) []byte {
	return []byte("chat:" + chatID + ":settings")
}

// SaveChatSettings persists the settings document for one chat.
func SaveChatSettings(s models.ChatSettings) error {
	d, err := handle()
	if err != nil {
		return err
	}
	if s.ChatID == "" {
		return fmt.Errorf("save settings: empty chat id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := d.Set(settingsKey(s.ChatID), data, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetChatSettings returns stored settings for a chat or ErrNotFound when the
// chat never customized anything.
func GetChatSettings(chatID string) (models.ChatSettings, error) {
	d, err := handle()
	if err != nil {
		return models.ChatSettings{}, err
	}
	v, closer, err := d.Get(settingsKey(chatID))
	if errors.Is(err, pebble.ErrNotFound) {
		return models.ChatSettings{}, ErrNotFound
	}
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer closer.Close()
	var s models.ChatSettings
	if err := json.Unmarshal(v, &s); err != nil {
		return models.ChatSettings{}, fmt.Errorf("corrupt settings %s: %w", chatID, err)
	}
	return s, nil
}
