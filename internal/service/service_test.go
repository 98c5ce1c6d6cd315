package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/media"
	"marketplace-api/internal/repo"
)

// newTestDB opens a throwaway sqlite database under the test's temp dir.
// A file (not :memory:) so concurrent placement tests exercise real
// transactions; single connection keeps the write path serialized the way
// sqlite wants it.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&domain.User{}, &domain.Shop{}, &domain.Category{},
		&domain.Product{}, &domain.ProductPicture{}, &domain.Transaction{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fixtures struct {
	t  *testing.T
	db *gorm.DB
}

func seed(t *testing.T, db *gorm.DB) *fixtures { return &fixtures{t: t, db: db} }

func (f *fixtures) user(name, role string, verified bool) *domain.User {
	f.t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@test.local", name),
		PasswordHash: "x",
		Role:         role,
		IsVerified:   verified,
	}
	if err := f.db.Create(u).Error; err != nil {
		f.t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func (f *fixtures) shop(owner *domain.User, name string, verified bool) *domain.Shop {
	f.t.Helper()
	s := &domain.Shop{UserID: owner.ID, Name: name, IsVerified: verified}
	if err := f.db.Create(s).Error; err != nil {
		f.t.Fatalf("seed shop %s: %v", name, err)
	}
	return s
}

func (f *fixtures) category(name string) *domain.Category {
	f.t.Helper()
	c := &domain.Category{Name: name}
	if err := f.db.Create(c).Error; err != nil {
		f.t.Fatalf("seed category %s: %v", name, err)
	}
	return c
}

func (f *fixtures) product(shop *domain.Shop, cat *domain.Category, name string, stock, price int) *domain.Product {
	f.t.Helper()
	p := &domain.Product{
		ShopID:     shop.ID,
		CategoryID: cat.ID,
		Name:       name,
		Stock:      stock,
		Price:      price,
	}
	if err := f.db.Create(p).Error; err != nil {
		f.t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

// marketplace spins up a full storefront: one verified seller with a shop and
// a product, plus a verified buyer.
type marketplace struct {
	db      *gorm.DB
	buyer   *domain.User
	seller  *domain.User
	shop    *domain.Shop
	cat     *domain.Category
	product *domain.Product

	orders *OrderService
}

func newMarketplace(t *testing.T, stock, price int) *marketplace {
	t.Helper()
	db := newTestDB(t)
	f := seed(t, db)

	seller := f.user("seller", domain.RoleSeller, true)
	shop := f.shop(seller, "toko", true)
	cat := f.category("groceries")
	product := f.product(shop, cat, "kopi", stock, price)
	buyer := f.user("buyer", domain.RoleBuyer, true)

	products := repo.NewProductRepo(db)
	orders := NewOrderService(
		db,
		repo.NewUserRepo(db),
		products,
		repo.NewTransactionRepo(db),
		repo.NewShopRepo(db),
		NewInventory(products),
		nopOrderNotifier{},
	)

	return &marketplace{
		db: db, buyer: buyer, seller: seller, shop: shop, cat: cat,
		product: product, orders: orders,
	}
}

func (m *marketplace) reloadProduct(t *testing.T) *domain.Product {
	t.Helper()
	var p domain.Product
	if err := m.db.First(&p, m.product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &p
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UID: 9999, Role: domain.RoleAdmin}
}

func buyerClaims(u *domain.User) *auth.Claims {
	return &auth.Claims{UID: u.ID, Role: u.Role}
}

func sellerClaims(u *domain.User, s *domain.Shop) *auth.Claims {
	return &auth.Claims{UID: u.ID, Role: domain.RoleSeller, ShopID: s.ID}
}

type nopOrderNotifier struct{}

func (nopOrderNotifier) OrderPlaced(*domain.Transaction) {}

// fakeStore is an in-memory media.Store that records calls.
type fakeStore struct {
	uploads int
	deleted []string
	fail    bool
}

func (s *fakeStore) Upload(_ context.Context, _ []byte, filename, folder string) (media.Asset, error) {
	if s.fail {
		return media.Asset{}, fmt.Errorf("%w: upload refused", domain.ErrExternalService)
	}
	s.uploads++
	id := fmt.Sprintf("%s/%s-%d", folder, filename, s.uploads)
	return media.Asset{URL: "https://img.test/" + id, PublicID: id}, nil
}

func (s *fakeStore) Delete(_ context.Context, publicID string) error {
	s.deleted = append(s.deleted, publicID)
	return nil
}

func testLogger() *zap.Logger { return zap.NewNop() }
