package models

import "time"

// BaseModel uses hard deletes so that cascading removals (service -> incidents,
// service -> status changes) actually remove rows instead of soft-deleting them.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
