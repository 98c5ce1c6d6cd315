package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
	RoleBuyer  = "buyer"
)

type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:64;not null" json:"name"`
	Email          string         `gorm:"size:191;not null;uniqueIndex:idx_users_email_role" json:"email"`
	PasswordHash   string         `gorm:"size:100;not null" json:"-"`
	Role           string         `gorm:"size:16;not null;default:buyer;uniqueIndex:idx_users_email_role" json:"role"`
	Address        string         `gorm:"size:255" json:"address"`
	PhoneNumber    string         `gorm:"size:32" json:"phoneNumber"`
	ProfilePicture string         `gorm:"size:255" json:"profilePicture"`
	IsVerified     bool           `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
