package domain

import (
	"time"

	"gorm.io/gorm"
)

// PromotedCategoryID is the reserved category used to feature products on the
// home page. A promoted product keeps its original category in OldCategoryID
// so demotion can restore it.
const PromotedCategoryID uint = 1

type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:64;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	Icon        string         `gorm:"size:255" json:"icon"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string { return "categories" }
