package models

import "time"

// KVEntry backs the key-value persistence port.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of naming strategy.
func (KVEntry) TableName() string {
	return "kv_entries"
}
