package models

type User struct {
	BaseModel

	Name           string `gorm:"not null"`
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	OrganizationID uint   `gorm:"index"`
}
