package domain

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ShopID         uint             `gorm:"not null;index" json:"shopId"`
	Shop           Shop             `json:"shop"`
	CategoryID     uint             `gorm:"not null;index" json:"categoryId"`
	Category       Category         `json:"category"`
	OldCategoryID  uint             `json:"-"` // original category while promoted
	Name           string           `gorm:"size:128;not null" json:"name"`
	Description    string           `gorm:"size:1024" json:"description"`
	ProductPicture string           `gorm:"size:255" json:"productPicture"`
	Pictures       []ProductPicture `gorm:"foreignKey:ProductID" json:"pictures"`
	Stock          int              `gorm:"not null;default:0" json:"stock"`
	Price          int              `gorm:"not null" json:"price"` // smallest currency unit
	Sold           int              `gorm:"not null;default:0" json:"sold"`
	PromotedAt     *time.Time       `json:"promotedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "products" }

func (p *Product) IsPromoted() bool { return p.PromotedAt != nil }

// MaxProductPictures caps the gallery per product, on top of the cover image
// stored on the product row itself.
const MaxProductPictures = 3

// ProductPicture is one gallery image. PublicID is the media host's handle,
// kept so deleting the row can also evict the asset.
type ProductPicture struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"productId"`
	URL       string         `gorm:"size:255;not null" json:"url"`
	PublicID  string         `gorm:"size:255" json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProductPicture) TableName() string { return "product_pictures" }
