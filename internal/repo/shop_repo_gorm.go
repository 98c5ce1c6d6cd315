package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type ShopRepo struct{ db *gorm.DB }

func NewShopRepo(db *gorm.DB) *ShopRepo { return &ShopRepo{db: db} }

func (r *ShopRepo) WithTx(tx *gorm.DB) *ShopRepo { return &ShopRepo{db: tx} }

func (r *ShopRepo) Create(ctx context.Context, s *domain.Shop) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("%w: user %d already owns a shop", domain.ErrConflict, s.UserID)
		}
		return err
	}
	return nil
}

func (r *ShopRepo) FindByID(ctx context.Context, id uint) (*domain.Shop, error) {
	var s domain.Shop
	err := r.db.WithContext(ctx).Preload("User").First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shop %d", domain.ErrNotFound, id)
	}
	return &s, err
}

func (r *ShopRepo) FindByUserID(ctx context.Context, userID uint) (*domain.Shop, error) {
	var s domain.Shop
	err := r.db.WithContext(ctx).Preload("User").First(&s, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shop for user %d", domain.ErrNotFound, userID)
	}
	return &s, err
}

func (r *ShopRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Shop{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: shop %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ShopRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Shop{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: shop %d", domain.ErrNotFound, id)
	}
	return nil
}

type ListShopsQuery struct {
	Search         string
	VerifiedOnly   bool
	UnverifiedOnly bool
	Offset         int
	Limit          int
}

func (r *ShopRepo) List(ctx context.Context, q ListShopsQuery) ([]domain.Shop, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Shop{}).Preload("User")
	if q.VerifiedOnly {
		tx = tx.Where("is_verified = ?", true)
	}
	if q.UnverifiedOnly {
		tx = tx.Where("is_verified = ?", false)
	}
	if s := q.Search; s != "" {
		tx = tx.Where("LOWER(name) LIKE LOWER(?)", "%"+s+"%")
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var shops []domain.Shop
	if err := tx.Order("created_at DESC").Limit(q.Limit).Offset(q.Offset).Find(&shops).Error; err != nil {
		return nil, 0, err
	}
	return shops, total, nil
}
