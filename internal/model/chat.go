package model

import "time"

// Chat stores Telegram chat metadata for every agent that talked to the bot.
type Chat struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// KVEntry is one persisted session value, scoped by namespace.
type KVEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Namespace string `gorm:"index:idx_kv_namespace_key,unique"`
	Key       string `gorm:"index:idx_kv_namespace_key,unique"`
	Value     string
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
