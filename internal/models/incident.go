package models

import "time"

type Incident struct {
	BaseModel

	ServiceID   uint   `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string

	// Severity classifies the impact of the incident while it is Ongoing:
	// "outage" forces the service to Outage, "degraded" forces at least
	// Degraded. New incidents default to "outage".
	Severity string `gorm:"not null;default:outage"`

	// Status is one of Ongoing, Scheduled, Resolved. ResolvedAt is set if and
	// only if Status is Resolved.
	Status     string `gorm:"not null;default:Ongoing"`
	StartedAt  *time.Time
	ResolvedAt *time.Time

	// Relationships
	Service Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
