package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusOnDelivery Status = "on_delivery"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// Forward-only lifecycle: pending -> on_delivery -> delivered,
// or pending -> canceled. Anything else is rejected.
var statusNext = map[Status][]Status{
	StatusPending:    {StatusOnDelivery, StatusCanceled},
	StatusOnDelivery: {StatusDelivered},
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusOnDelivery, StatusDelivered, StatusCanceled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
}

func (s Status) CanTransition(to Status) bool {
	for _, n := range statusNext[s] {
		if n == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

type Transaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"userId"`
	User        User           `json:"user"`
	ProductID   uint           `gorm:"not null;index" json:"productId"`
	Product     Product        `json:"product"`
	ShopID      uint           `gorm:"not null;index" json:"shopId"`
	Shop        Shop           `json:"shop"`
	Quantity    int            `gorm:"not null" json:"quantity"`
	Total       int            `gorm:"not null" json:"total"` // price * quantity, fixed at creation
	Status      Status         `gorm:"size:16;not null;default:pending" json:"status"`
	DeliveredAt *time.Time     `json:"deliveredAt"`
	ConfirmedAt *time.Time     `json:"confirmedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transaction) TableName() string { return "transactions" }
