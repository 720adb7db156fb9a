package model

import "time"

// User is owned by the authentication service, only the identity is needed here
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"unique;not null"`
	CreatedAt time.Time
}
