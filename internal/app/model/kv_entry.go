package model

import "time"

// KVEntry is one key of a device session stored in the relational backend
type KVEntry struct {
	Namespace string    `gorm:"primaryKey;size:128" json:"namespace"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
