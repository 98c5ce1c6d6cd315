package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/notify"
)

func TestPlaceOrder(t *testing.T) {
	m := newMarketplace(t, 10, 2500)
	ctx := context.Background()

	tx, err := m.orders.PlaceOrder(ctx, m.buyer.ID, m.product.ID, 3)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if tx.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", tx.Status)
	}
	if tx.Total != 7500 {
		t.Errorf("total = %d, want 7500", tx.Total)
	}
	if tx.ShopID != m.shop.ID {
		t.Errorf("shop id = %d, want %d", tx.ShopID, m.shop.ID)
	}
	if got := m.reloadProduct(t).Stock; got != 7 {
		t.Errorf("stock after reservation = %d, want 7", got)
	}
	// sold is only credited on delivery
	if got := m.reloadProduct(t).Sold; got != 0 {
		t.Errorf("sold = %d, want 0", got)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	m := newMarketplace(t, 2, 100)
	ctx := context.Background()

	_, err := m.orders.PlaceOrder(ctx, m.buyer.ID, m.product.ID, 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	// the failed attempt must not leave a transaction behind
	var n int64
	m.db.Model(&domain.Transaction{}).Count(&n)
	if n != 0 {
		t.Errorf("transactions = %d, want 0", n)
	}
	if got := m.reloadProduct(t).Stock; got != 2 {
		t.Errorf("stock = %d, want 2", got)
	}
}

func TestPlaceOrderRejectsUnverifiedBuyer(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	unverified := seed(t, m.db).user("newcomer", domain.RoleBuyer, false)

	_, err := m.orders.PlaceOrder(context.Background(), unverified.ID, m.product.ID, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPlaceOrderRejectsSelfPurchase(t *testing.T) {
	m := newMarketplace(t, 5, 100)

	_, err := m.orders.PlaceOrder(context.Background(), m.seller.ID, m.product.ID, 1)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	for _, qty := range []int{0, -1} {
		_, err := m.orders.PlaceOrder(context.Background(), m.buyer.ID, m.product.ID, qty)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("qty %d: err = %v, want ErrInvalidInput", qty, err)
		}
	}
}

// Concurrent placement on a near-exhausted product: exactly stock orders may
// win and stock never goes negative.
func TestPlaceOrderConcurrentExhaustion(t *testing.T) {
	const stock, attempts = 5, 10
	m := newMarketplace(t, stock, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.orders.PlaceOrder(ctx, m.buyer.ID, m.product.ID, 1)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrInsufficientStock):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != stock {
		t.Errorf("successful placements = %d, want %d", won, stock)
	}
	if got := m.reloadProduct(t).Stock; got != 0 {
		t.Errorf("final stock = %d, want 0", got)
	}
}

// driveTo walks a fresh pending order along the valid path to the wanted
// starting state.
func driveTo(t *testing.T, m *marketplace, want domain.Status) *domain.Transaction {
	t.Helper()
	ctx := context.Background()
	tx, err := m.orders.PlaceOrder(ctx, m.buyer.ID, m.product.ID, 1)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	admin := adminClaims()
	switch want {
	case domain.StatusPending:
	case domain.StatusOnDelivery:
		tx, err = m.orders.UpdateStatus(ctx, admin, tx.ID, domain.StatusOnDelivery)
	case domain.StatusDelivered:
		if tx, err = m.orders.UpdateStatus(ctx, admin, tx.ID, domain.StatusOnDelivery); err == nil {
			tx, err = m.orders.UpdateStatus(ctx, admin, tx.ID, domain.StatusDelivered)
		}
	case domain.StatusCanceled:
		tx, err = m.orders.UpdateStatus(ctx, admin, tx.ID, domain.StatusCanceled)
	}
	if err != nil {
		t.Fatalf("drive to %s: %v", want, err)
	}
	return tx
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	all := []domain.Status{
		domain.StatusPending, domain.StatusOnDelivery,
		domain.StatusDelivered, domain.StatusCanceled,
	}
	allowed := map[domain.Status]map[domain.Status]bool{
		domain.StatusPending:    {domain.StatusOnDelivery: true, domain.StatusCanceled: true},
		domain.StatusOnDelivery: {domain.StatusDelivered: true},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				m := newMarketplace(t, 100, 10)
				tx := driveTo(t, m, from)

				_, err := m.orders.UpdateStatus(context.Background(), adminClaims(), tx.ID, to)
				if allowed[from][to] {
					if err != nil {
						t.Fatalf("%s -> %s: %v, want ok", from, to, err)
					}
					return
				}
				if !errors.Is(err, domain.ErrInvalidTransition) {
					t.Fatalf("%s -> %s: err = %v, want ErrInvalidTransition", from, to, err)
				}
			})
		}
	}
}

func TestDeliveryCreditsSoldExactlyOnce(t *testing.T) {
	m := newMarketplace(t, 10, 100)
	ctx := context.Background()

	tx := driveTo(t, m, domain.StatusOnDelivery)
	if _, err := m.orders.UpdateStatus(ctx, adminClaims(), tx.ID, domain.StatusDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got := m.reloadProduct(t).Sold; got != 1 {
		t.Fatalf("sold = %d, want 1", got)
	}

	// a second delivery is rejected and must not credit again
	_, err := m.orders.UpdateStatus(ctx, adminClaims(), tx.ID, domain.StatusDelivered)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second delivery: err = %v, want ErrInvalidTransition", err)
	}
	if got := m.reloadProduct(t).Sold; got != 1 {
		t.Errorf("sold after second delivery = %d, want 1", got)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	ctx := context.Background()

	tx, err := m.orders.PlaceOrder(ctx, m.buyer.ID, m.product.ID, 2)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if got := m.reloadProduct(t).Stock; got != 3 {
		t.Fatalf("stock after placement = %d, want 3", got)
	}

	if _, err := m.orders.Cancel(ctx, buyerClaims(m.buyer), tx.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := m.reloadProduct(t).Stock; got != 5 {
		t.Errorf("stock after cancel = %d, want 5", got)
	}

	// canceled is terminal, units cannot be restored twice
	_, err = m.orders.Cancel(ctx, buyerClaims(m.buyer), tx.ID)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second cancel: err = %v, want ErrInvalidTransition", err)
	}
	if got := m.reloadProduct(t).Stock; got != 5 {
		t.Errorf("stock after second cancel = %d, want 5", got)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("seller ships own shop order", func(t *testing.T) {
		m := newMarketplace(t, 5, 100)
		tx := driveTo(t, m, domain.StatusPending)
		if _, err := m.orders.UpdateStatus(ctx, sellerClaims(m.seller, m.shop), tx.ID, domain.StatusOnDelivery); err != nil {
			t.Fatalf("seller ship: %v", err)
		}
	})

	t.Run("buyer cannot ship", func(t *testing.T) {
		m := newMarketplace(t, 5, 100)
		tx := driveTo(t, m, domain.StatusPending)
		_, err := m.orders.UpdateStatus(ctx, buyerClaims(m.buyer), tx.ID, domain.StatusOnDelivery)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("foreign seller cannot ship", func(t *testing.T) {
		m := newMarketplace(t, 5, 100)
		f := seed(t, m.db)
		other := f.user("othseller", domain.RoleSeller, true)
		otherShop := f.shop(other, "warung", true)
		tx := driveTo(t, m, domain.StatusPending)
		_, err := m.orders.UpdateStatus(ctx, sellerClaims(other, otherShop), tx.ID, domain.StatusOnDelivery)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("seller cannot confirm receipt", func(t *testing.T) {
		m := newMarketplace(t, 5, 100)
		tx := driveTo(t, m, domain.StatusOnDelivery)
		_, err := m.orders.UpdateStatus(ctx, sellerClaims(m.seller, m.shop), tx.ID, domain.StatusDelivered)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("buyer confirms receipt", func(t *testing.T) {
		m := newMarketplace(t, 5, 100)
		tx := driveTo(t, m, domain.StatusOnDelivery)
		if _, err := m.orders.UpdateStatus(ctx, buyerClaims(m.buyer), tx.ID, domain.StatusDelivered); err != nil {
			t.Fatalf("buyer confirm: %v", err)
		}
	})
}

func TestGetHidesForeignTransactions(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	ctx := context.Background()
	tx := driveTo(t, m, domain.StatusPending)

	stranger := seed(t, m.db).user("stranger", domain.RoleBuyer, true)
	_, err := m.orders.Get(ctx, buyerClaims(stranger), tx.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if _, err := m.orders.Get(ctx, buyerClaims(m.buyer), tx.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := m.orders.Get(ctx, adminClaims(), tx.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestListScopesByRole(t *testing.T) {
	m := newMarketplace(t, 50, 100)
	ctx := context.Background()
	f := seed(t, m.db)
	other := f.user("otherbuyer", domain.RoleBuyer, true)

	driveTo(t, m, domain.StatusPending)
	driveTo(t, m, domain.StatusPending)
	if _, err := m.orders.PlaceOrder(ctx, other.ID, m.product.ID, 1); err != nil {
		t.Fatalf("other buyer order: %v", err)
	}

	items, total, err := m.orders.List(ctx, buyerClaims(m.buyer), "", 0, 20)
	if err != nil {
		t.Fatalf("buyer list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("buyer list = %d/%d, want 2/2", len(items), total)
	}

	_, total, err = m.orders.List(ctx, sellerClaims(m.seller, m.shop), "", 0, 20)
	if err != nil {
		t.Fatalf("seller list: %v", err)
	}
	if total != 3 {
		t.Errorf("seller total = %d, want 3", total)
	}

	_, total, err = m.orders.List(ctx, adminClaims(), "", 0, 20)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if total != 3 {
		t.Errorf("admin total = %d, want 3", total)
	}
}

func TestRemoveIsAdminOnly(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	ctx := context.Background()
	tx := driveTo(t, m, domain.StatusPending)

	if err := m.orders.Remove(ctx, buyerClaims(m.buyer), tx.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("buyer remove: err = %v, want ErrForbidden", err)
	}
	if err := m.orders.Remove(ctx, adminClaims(), tx.ID); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	// soft deleted rows disappear from reads
	if _, err := m.orders.Get(ctx, adminClaims(), tx.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after remove: err = %v, want ErrNotFound", err)
	}
}

// A dead mail relay must never block or fail order placement.
func TestPlaceOrderCommitsWhenMailerIsDown(t *testing.T) {
	m := newMarketplace(t, 5, 100)
	dispatcher := notify.NewDispatcher(deadRelay{}, zap.NewNop(), "admin@test.local", "http://base")
	defer dispatcher.Close()
	m.orders.notifier = dispatcher

	tx, err := m.orders.PlaceOrder(context.Background(), m.buyer.ID, m.product.ID, 1)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if tx.Status != domain.StatusPending {
		t.Errorf("status = %s", tx.Status)
	}
	if got := m.reloadProduct(t).Stock; got != 4 {
		t.Errorf("stock = %d, want 4", got)
	}
}

type deadRelay struct{}

func (deadRelay) Send(context.Context, string, string, map[string]any) error {
	return errors.New("relay unreachable")
}
