package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/repo"
)

// Inventory applies stock changes for products. Reservation must run inside
// the same DB transaction as the order insert; the conditional update in the
// repo keeps stock from ever going negative under concurrent placement.
type Inventory struct {
	products *repo.ProductRepo
}

func NewInventory(products *repo.ProductRepo) *Inventory {
	return &Inventory{products: products}
}

func (i *Inventory) WithTx(tx *gorm.DB) *Inventory {
	return &Inventory{products: i.products.WithTx(tx)}
}

func (i *Inventory) Reserve(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return i.products.ReserveStock(ctx, productID, qty)
}

func (i *Inventory) Restore(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return i.products.RestoreStock(ctx, productID, qty)
}

// RecordFulfillment credits the sold counter. Callers must hold the delivered
// transition guard so a transaction can never be credited twice.
func (i *Inventory) RecordFulfillment(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return i.products.AddSold(ctx, productID, qty)
}
