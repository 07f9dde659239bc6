package models

// ChatSettings holds per-chat behavior toggles. The bot layer reads these on
// every search; defaults apply for chats that never customized anything.
type ChatSettings struct {
	ChatID        string   `json:"chat_id"`
	SearchEnabled bool     `json:"search_enabled"`
	AutoDelete    bool     `json:"auto_delete"`
	FileSecure    bool     `json:"file_secure"`
	Caption       string   `json:"caption,omitempty"`
	Blacklist     []string `json:"blacklist,omitempty"`
}

// DefaultChatSettings returns the settings applied to a chat with no stored
// overrides.
func DefaultChatSettings(chatID string) ChatSettings {
	return ChatSettings{
		ChatID:        chatID,
		SearchEnabled: true,
		AutoDelete:    false,
		FileSecure:    false,
	}
}
