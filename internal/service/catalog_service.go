package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/media"
	"marketplace-api/internal/repo"
)

// CatalogService owns products and categories: lookup, filtered listing,
// create/update with picture upload, and the promotion flow.
type CatalogService struct {
	products   *repo.ProductRepo
	categories *repo.CategoryRepo
	shops      *repo.ShopRepo
	images     media.Store
	log        *zap.Logger
}

func NewCatalogService(
	products *repo.ProductRepo,
	categories *repo.CategoryRepo,
	shops *repo.ShopRepo,
	images media.Store,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		shops:      shops,
		images:     images,
		log:        log,
	}
}

type CreateProductInput struct {
	Name        string
	Description string
	CategoryID  uint
	Stock       int
	Price       int
	Picture     []byte
	PictureName string
}

// CreateProduct uploads the picture first and rolls the asset back if the row
// cannot be written, so the media host holds no orphans.
func (s *CatalogService) CreateProduct(ctx context.Context, principal *auth.Claims, in CreateProductInput) (*domain.Product, error) {
	if err := auth.Authorize(principal, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}

	shop, err := s.shops.FindByUserID(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	var asset media.Asset
	if len(in.Picture) > 0 {
		asset, err = s.images.Upload(ctx, in.Picture, in.PictureName, media.FolderProducts)
		if err != nil {
			return nil, err
		}
	}

	p := &domain.Product{
		ShopID:         shop.ID,
		CategoryID:     in.CategoryID,
		Name:           in.Name,
		Description:    in.Description,
		ProductPicture: asset.URL,
		Stock:          in.Stock,
		Price:          in.Price,
	}
	if err := s.products.Create(ctx, p); err != nil {
		if asset.PublicID != "" {
			if delErr := s.images.Delete(ctx, asset.PublicID); delErr != nil {
				s.log.Warn("orphan picture cleanup failed",
					zap.String("public_id", asset.PublicID), zap.Error(delErr))
			}
		}
		return nil, err
	}
	return s.products.FindByID(ctx, p.ID)
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	CategoryID  *uint
	Stock       *int
	Price       *int
	Picture     []byte
	PictureName string
}

func (s *CatalogService) UpdateProduct(ctx context.Context, principal *auth.Claims, id uint, in UpdateProductInput) (*domain.Product, error) {
	if err := auth.Authorize(principal, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := s.ownedProduct(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
		}
		fields["stock"] = *in.Stock
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
		}
		fields["price"] = *in.Price
	}
	if len(in.Picture) > 0 {
		asset, err := s.images.Upload(ctx, in.Picture, in.PictureName, media.FolderProducts)
		if err != nil {
			return nil, err
		}
		fields["product_picture"] = asset.URL
	}
	if len(fields) == 0 {
		return p, nil
	}
	if err := s.products.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, principal *auth.Claims, id uint) error {
	if err := auth.Authorize(principal, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, principal, id); err != nil {
		return err
	}
	return s.products.SoftDelete(ctx, id)
}

// ownedProduct loads a product and, for sellers, checks it belongs to their
// shop. Outsiders get a not-found, never a hint the product exists.
func (s *CatalogService) ownedProduct(ctx context.Context, principal *auth.Claims, id uint) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Role == domain.RoleAdmin {
		return p, nil
	}
	shop, err := s.shops.FindByUserID(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != shop.ID {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, q repo.ListProductsQuery) ([]domain.Product, int64, error) {
	return s.products.List(ctx, q)
}

func (s *CatalogService) BestSellers(ctx context.Context, offset, limit int) ([]repo.BestSeller, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.products.BestSellers(ctx, offset, limit)
}

// Promote moves a product into the reserved featured category, keeping the
// original category id around so Demote can restore it.
func (s *CatalogService) Promote(ctx context.Context, principal *auth.Claims, id uint, promote bool) (*domain.Product, error) {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if promote {
		if p.IsPromoted() {
			return p, nil
		}
		fields["category_id"] = domain.PromotedCategoryID
		fields["old_category_id"] = p.CategoryID
		fields["promoted_at"] = time.Now()
	} else {
		if !p.IsPromoted() {
			return p, nil
		}
		fields["category_id"] = p.OldCategoryID
		fields["old_category_id"] = 0
		fields["promoted_at"] = nil
	}
	if err := s.products.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

// --- gallery ---

// AddProductPicture appends one gallery image. The gallery is capped at
// MaxProductPictures per product; the upload is rolled back if the row
// cannot be written.
func (s *CatalogService) AddProductPicture(ctx context.Context, principal *auth.Claims, productID uint, file []byte, filename string) (*domain.ProductPicture, error) {
	if err := auth.Authorize(principal, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if len(file) == 0 {
		return nil, fmt.Errorf("%w: picture file is required", domain.ErrInvalidInput)
	}
	if _, err := s.ownedProduct(ctx, principal, productID); err != nil {
		return nil, err
	}
	n, err := s.products.CountPictures(ctx, productID)
	if err != nil {
		return nil, err
	}
	if n >= domain.MaxProductPictures {
		return nil, fmt.Errorf("%w: gallery holds at most %d pictures", domain.ErrConflict, domain.MaxProductPictures)
	}

	asset, err := s.images.Upload(ctx, file, filename, media.FolderProducts)
	if err != nil {
		return nil, err
	}
	pic := &domain.ProductPicture{
		ProductID: productID,
		URL:       asset.URL,
		PublicID:  asset.PublicID,
	}
	if err := s.products.AddPicture(ctx, pic); err != nil {
		if asset.PublicID != "" {
			if delErr := s.images.Delete(ctx, asset.PublicID); delErr != nil {
				s.log.Warn("orphan picture cleanup failed",
					zap.String("public_id", asset.PublicID), zap.Error(delErr))
			}
		}
		return nil, err
	}
	return pic, nil
}

func (s *CatalogService) ListProductPictures(ctx context.Context, productID uint) ([]domain.ProductPicture, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.products.ListPictures(ctx, productID)
}

// RemoveProductPicture drops the row first; evicting the asset from the
// media host is best effort.
func (s *CatalogService) RemoveProductPicture(ctx context.Context, principal *auth.Claims, productID, picID uint) error {
	if err := auth.Authorize(principal, domain.RoleSeller, domain.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, principal, productID); err != nil {
		return err
	}
	pic, err := s.products.FindPicture(ctx, productID, picID)
	if err != nil {
		return err
	}
	if err := s.products.DeletePicture(ctx, pic.ID); err != nil {
		return err
	}
	if pic.PublicID != "" {
		if err := s.images.Delete(ctx, pic.PublicID); err != nil {
			s.log.Warn("picture eviction failed",
				zap.String("public_id", pic.PublicID), zap.Error(err))
		}
	}
	return nil
}

// --- categories ---

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, principal *auth.Claims, c *domain.Category) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	return s.categories.Create(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, principal *auth.Claims, id uint, fields map[string]any) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	return s.categories.UpdateFields(ctx, id, fields)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, principal *auth.Claims, id uint) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	if id == domain.PromotedCategoryID {
		return fmt.Errorf("%w: the promoted category is reserved", domain.ErrForbidden)
	}
	return s.categories.Delete(ctx, id)
}
