package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"marketplace-api/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) WithTx(tx *gorm.DB) *ProductRepo { return &ProductRepo{db: tx} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID loads the product together with its shop, the shop's owner and the
// category, as one bounded query. The order workflow relies on Shop.User being
// present for the self-purchase check.
func (r *ProductRepo) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).
		Preload("Shop").Preload("Shop.User").Preload("Category").Preload("Pictures").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return &p, err
}

func (r *ProductRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *ProductRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}

type ListProductsQuery struct {
	Search     string // case-insensitive name substring
	CategoryID uint
	ShopID     uint
	ExcludeIDs []uint
	Sort       string // name / price / date / random
	Desc       bool
	Page       int // 1-based
	Limit      int
	// WithUnverifiedShops lifts the default exclusion of products whose shop
	// has not been verified yet (admin views).
	WithUnverifiedShops bool
}

func (r *ProductRepo) List(ctx context.Context, q ListProductsQuery) ([]domain.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Product{}).
		Preload("Shop").Preload("Category")
	if !q.WithUnverifiedShops {
		tx = tx.Joins("JOIN shops ON shops.id = products.shop_id AND shops.is_verified = ? AND shops.deleted_at IS NULL", true)
	}
	if s := q.Search; s != "" {
		tx = tx.Where("LOWER(products.name) LIKE LOWER(?)", "%"+s+"%")
	}
	if q.CategoryID != 0 {
		tx = tx.Where("products.category_id = ?", q.CategoryID)
	}
	if q.ShopID != 0 {
		tx = tx.Where("products.shop_id = ?", q.ShopID)
	}
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("products.id NOT IN ?", q.ExcludeIDs)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tx = tx.Order(r.orderClause(q.Sort, q.Desc))
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		tx = tx.Limit(q.Limit).Offset((page - 1) * q.Limit)
	}

	var products []domain.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepo) orderClause(sort string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch sort {
	case "name":
		return "products.name " + dir
	case "price":
		return "products.price " + dir
	case "random":
		if r.db.Dialector.Name() == "mysql" {
			return "RAND()"
		}
		return "RANDOM()"
	default: // date
		return "products.created_at " + dir
	}
}

// BestSellers returns product ids ranked by how often they were ordered.
type BestSeller struct {
	ProductID uint  `json:"productId"`
	Orders    int64 `json:"orders"`
}

func (r *ProductRepo) BestSellers(ctx context.Context, offset, limit int) ([]BestSeller, error) {
	var rows []BestSeller
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("product_id AS product_id, COUNT(product_id) AS orders").
		Group("product_id").
		Order("orders DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// ReserveStock conditionally decrements stock. The WHERE guard on stock makes
// the decrement a compare-and-swap, so two concurrent orders can never drive
// stock negative regardless of isolation level. Must run inside the order
// placement transaction.
func (r *ProductRepo) ReserveStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// distinguish a missing product from one that is just out of stock
		var n int64
		if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		return fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, id)
	}
	return nil
}

// RestoreStock puts reserved units back (order cancellation).
func (r *ProductRepo) RestoreStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}

// --- gallery ---

func (r *ProductRepo) AddPicture(ctx context.Context, pic *domain.ProductPicture) error {
	return r.db.WithContext(ctx).Create(pic).Error
}

func (r *ProductRepo) ListPictures(ctx context.Context, productID uint) ([]domain.ProductPicture, error) {
	var pics []domain.ProductPicture
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&pics).Error
	return pics, err
}

func (r *ProductRepo) CountPictures(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ProductPicture{}).
		Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

// FindPicture is scoped to its product so a picture id from another product
// reads as not-found.
func (r *ProductRepo) FindPicture(ctx context.Context, productID, picID uint) (*domain.ProductPicture, error) {
	var pic domain.ProductPicture
	err := r.db.WithContext(ctx).
		First(&pic, "id = ? AND product_id = ?", picID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: picture %d", domain.ErrNotFound, picID)
	}
	return &pic, err
}

func (r *ProductRepo) DeletePicture(ctx context.Context, picID uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", picID).Delete(&domain.ProductPicture{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: picture %d", domain.ErrNotFound, picID)
	}
	return nil
}

// AddSold credits the cumulative fulfillment counter.
func (r *ProductRepo) AddSold(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("sold", gorm.Expr("sold + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}
