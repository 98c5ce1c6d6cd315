package domain

import (
	"time"

	"gorm.io/gorm"
)

type Shop struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex" json:"userId"`
	User        User           `json:"user"`
	Name        string         `gorm:"size:64;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	ShopPicture string         `gorm:"size:255" json:"shopPicture"`
	IsOpen      bool           `gorm:"not null;default:true" json:"isOpen"`
	IsVerified  bool           `gorm:"not null;default:false" json:"isVerified"`
	OpenedAt    string         `gorm:"size:8" json:"openedAt"` // "08:00"
	ClosedAt    string         `gorm:"size:8" json:"closedAt"`
	NIB         string         `gorm:"column:nib;size:32" json:"nib"` // business registration number
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Shop) TableName() string { return "shops" }
