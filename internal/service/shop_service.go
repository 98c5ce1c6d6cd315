package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/media"
	"marketplace-api/internal/repo"
)

// ShopNotifier is the slice of the dispatcher shop flows need.
type ShopNotifier interface {
	ShopSubmitted(s *domain.Shop)
	ShopVerified(s *domain.Shop)
}

// ShopService registers storefronts, upgrades their owners to sellers and
// runs the admin verification flow.
type ShopService struct {
	shops    *repo.ShopRepo
	users    *repo.UserRepo
	images   media.Store
	notifier ShopNotifier
	log      *zap.Logger
}

func NewShopService(shops *repo.ShopRepo, users *repo.UserRepo, images media.Store, notifier ShopNotifier, log *zap.Logger) *ShopService {
	return &ShopService{shops: shops, users: users, images: images, notifier: notifier, log: log}
}

type CreateShopInput struct {
	Name        string
	Description string
	OpenedAt    string
	ClosedAt    string
	NIB         string
	Picture     []byte
	PictureName string
}

// Register creates an unverified shop for the user and flags it for admin
// review. The owner becomes a seller if they were not one already.
func (s *ShopService) Register(ctx context.Context, principal *auth.Claims, in CreateShopInput) (*domain.Shop, error) {
	owner, err := s.users.FindByID(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	if !owner.IsVerified {
		return nil, fmt.Errorf("%w: confirm your account before opening a shop", domain.ErrForbidden)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: shop name is required", domain.ErrInvalidInput)
	}

	var asset media.Asset
	if len(in.Picture) > 0 {
		asset, err = s.images.Upload(ctx, in.Picture, in.PictureName, media.FolderShops)
		if err != nil {
			return nil, err
		}
	}

	shop := &domain.Shop{
		UserID:      owner.ID,
		Name:        in.Name,
		Description: in.Description,
		ShopPicture: asset.URL,
		IsOpen:      true,
		IsVerified:  false, // admin flips this after review
		OpenedAt:    in.OpenedAt,
		ClosedAt:    in.ClosedAt,
		NIB:         in.NIB,
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		if asset.PublicID != "" {
			if delErr := s.images.Delete(ctx, asset.PublicID); delErr != nil {
				s.log.Warn("orphan picture cleanup failed",
					zap.String("public_id", asset.PublicID), zap.Error(delErr))
			}
		}
		return nil, err
	}

	if owner.Role != domain.RoleSeller && owner.Role != domain.RoleAdmin {
		if err := s.users.UpdateFields(ctx, owner.ID, map[string]any{"role": domain.RoleSeller}); err != nil {
			return nil, err
		}
	}

	shop.User = *owner
	s.notifier.ShopSubmitted(shop)
	return shop, nil
}

// Verify is the admin action that makes a shop's products publicly listable.
func (s *ShopService) Verify(ctx context.Context, principal *auth.Claims, id uint) (*domain.Shop, error) {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shop.IsVerified {
		if err := s.shops.UpdateFields(ctx, id, map[string]any{"is_verified": true}); err != nil {
			return nil, err
		}
		shop.IsVerified = true
		s.notifier.ShopVerified(shop)
	}
	return shop, nil
}

func (s *ShopService) Get(ctx context.Context, id uint) (*domain.Shop, error) {
	return s.shops.FindByID(ctx, id)
}

func (s *ShopService) GetByOwner(ctx context.Context, userID uint) (*domain.Shop, error) {
	return s.shops.FindByUserID(ctx, userID)
}

func (s *ShopService) List(ctx context.Context, q repo.ListShopsQuery) ([]domain.Shop, int64, error) {
	return s.shops.List(ctx, q)
}

type UpdateShopInput struct {
	Name        *string
	Description *string
	IsOpen      *bool
	OpenedAt    *string
	ClosedAt    *string
	NIB         *string
	Picture     []byte
	PictureName string
}

func (s *ShopService) Update(ctx context.Context, principal *auth.Claims, id uint, in UpdateShopInput) (*domain.Shop, error) {
	shop, err := s.shops.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal.Role != domain.RoleAdmin && shop.UserID != principal.UID {
		return nil, fmt.Errorf("%w: shop %d", domain.ErrNotFound, id)
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.IsOpen != nil {
		fields["is_open"] = *in.IsOpen
	}
	if in.OpenedAt != nil {
		fields["opened_at"] = *in.OpenedAt
	}
	if in.ClosedAt != nil {
		fields["closed_at"] = *in.ClosedAt
	}
	if in.NIB != nil {
		fields["nib"] = *in.NIB
	}
	if len(in.Picture) > 0 {
		asset, err := s.images.Upload(ctx, in.Picture, in.PictureName, media.FolderShops)
		if err != nil {
			return nil, err
		}
		fields["shop_picture"] = asset.URL
	}
	if len(fields) > 0 {
		if err := s.shops.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.shops.FindByID(ctx, id)
}

func (s *ShopService) Remove(ctx context.Context, principal *auth.Claims, id uint) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	return s.shops.SoftDelete(ctx, id)
}
