package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type TransactionRepo struct{ db *gorm.DB }

func NewTransactionRepo(db *gorm.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) WithTx(tx *gorm.DB) *TransactionRepo { return &TransactionRepo{db: tx} }

func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepo) FindByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.WithContext(ctx).
		Preload("User").Preload("Shop").Preload("Shop.User").
		Preload("Product").Preload("Product.Category").
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return &t, err
}

type ListTransactionsQuery struct {
	UserID uint // scope to buyer
	ShopID uint // scope to shop
	Status domain.Status
	Offset int
	Limit  int
}

func (r *TransactionRepo) List(ctx context.Context, q ListTransactionsQuery) ([]domain.Transaction, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Preload("User").Preload("Shop").Preload("Product").Preload("Product.Category")
	if q.UserID != 0 {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.ShopID != 0 {
		tx = tx.Where("shop_id = ?", q.ShopID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	tx = tx.Order("created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}
	var list []domain.Transaction
	if err := tx.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// TransitionStatus flips the status only when the row still holds the expected
// prior status. Zero rows means the transaction raced or the transition is
// stale, which the workflow reports as an invalid transition. This CAS is also
// the guard that keeps the sold counter from being credited twice.
func (r *TransactionRepo) TransitionStatus(ctx context.Context, id uint, from, to domain.Status, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["status"] = to
	res := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %d is no longer %s", domain.ErrInvalidTransition, id, from)
	}
	return nil
}

func (r *TransactionRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Transaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *TransactionRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *TransactionRepo) SumTotalCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("SUM(total)").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}
