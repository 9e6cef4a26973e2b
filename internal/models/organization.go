package models

type Organization struct {
	BaseModel

	Name    string `gorm:"uniqueIndex;not null"`
	OwnerID uint   `gorm:"not null;index"`

	// Relationships
	// Organizations are never auto-deleted, so the owner reference restricts
	// instead of cascading.
	Owner    User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT"`
	Services []Service `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
