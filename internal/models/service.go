package models

type Service struct {
	BaseModel

	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_org_service_name"`
	Name           string `gorm:"not null;uniqueIndex:idx_org_service_name"`

	// ReportedStatus is the status an operator last set directly.
	// EffectiveStatus is the aggregation output and may be worse than
	// ReportedStatus while incidents are ongoing.
	ReportedStatus  string `gorm:"not null;default:Operational"`
	EffectiveStatus string `gorm:"not null;default:Operational"`

	// Relationships
	Organization  Organization   `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Incidents     []Incident     `gorm:"foreignKey:ServiceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	StatusChanges []StatusChange `gorm:"foreignKey:ServiceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
