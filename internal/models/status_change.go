package models

import "time"

// StatusChange records a transition of a service's effective status. These
// rows back the history endpoint and server-side uptime math, so the clients
// never have to derive uptime from locally held arrays.
type StatusChange struct {
	BaseModel

	ServiceID  uint      `gorm:"not null;index"`
	FromStatus string    `gorm:"not null"`
	ToStatus   string    `gorm:"not null"`
	ChangedAt  time.Time `gorm:"not null;index"`

	// Relationships
	Service Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
