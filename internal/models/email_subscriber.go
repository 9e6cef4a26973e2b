package models

type EmailSubscriber struct {
	BaseModel

	Email      string `gorm:"uniqueIndex;not null"`
	IsVerified bool   `gorm:"default:true"`
}
