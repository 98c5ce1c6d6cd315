package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/repo"
)

var (
	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_placed_total", Help: "Count of order placement attempts"},
		[]string{"outcome"},
	)
	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_transitions_total", Help: "Count of applied order status transitions"},
		[]string{"to"},
	)
)

func init() { prometheus.MustRegister(ordersPlaced, orderTransitions) }

// OrderNotifier is the slice of the dispatcher the workflow needs.
type OrderNotifier interface {
	OrderPlaced(t *domain.Transaction)
}

// OrderService drives the transaction lifecycle: placement with atomic stock
// reservation, the status state machine, and the notification fan-out.
type OrderService struct {
	db           *gorm.DB
	users        *repo.UserRepo
	products     *repo.ProductRepo
	transactions *repo.TransactionRepo
	shops        *repo.ShopRepo
	inventory    *Inventory
	notifier     OrderNotifier
	tracer       trace.Tracer
}

func NewOrderService(
	db *gorm.DB,
	users *repo.UserRepo,
	products *repo.ProductRepo,
	transactions *repo.TransactionRepo,
	shops *repo.ShopRepo,
	inventory *Inventory,
	notifier OrderNotifier,
) *OrderService {
	return &OrderService{
		db:           db,
		users:        users,
		products:     products,
		transactions: transactions,
		shops:        shops,
		inventory:    inventory,
		notifier:     notifier,
		tracer:       otel.Tracer("marketplace-api/order"),
	}
}

// PlaceOrder creates a pending transaction for (buyer, product, quantity).
// Stock reservation and the transaction insert commit or roll back together;
// the notification fan-out afterwards is best-effort.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID, productID uint, quantity int) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "order.place",
		trace.WithAttributes(
			attribute.Int64("buyer.id", int64(buyerID)),
			attribute.Int64("product.id", int64(productID)),
			attribute.Int("order.quantity", quantity),
		))
	defer span.End()

	t, err := s.placeOrder(ctx, buyerID, productID, quantity)
	if err != nil {
		span.RecordError(err)
		ordersPlaced.WithLabelValues(placeOutcome(err)).Inc()
		return nil, err
	}
	ordersPlaced.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int64("transaction.id", int64(t.ID)))

	s.notifier.OrderPlaced(t)
	return t, nil
}

func (s *OrderService) placeOrder(ctx context.Context, buyerID, productID uint, quantity int) (*domain.Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !buyer.IsVerified {
		return nil, fmt.Errorf("%w: user %d is not verified", domain.ErrNotFound, buyerID)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Shop.UserID == buyer.ID {
		return nil, fmt.Errorf("%w: cannot purchase your own product", domain.ErrForbidden)
	}

	t := &domain.Transaction{
		UserID:    buyer.ID,
		ProductID: product.ID,
		ShopID:    product.ShopID,
		Quantity:  quantity,
		Total:     product.Price * quantity, // fixed at creation, never recomputed
		Status:    domain.StatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.inventory.WithTx(tx).Reserve(ctx, product.ID, quantity); err != nil {
			return err
		}
		return s.transactions.WithTx(tx).Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	// attach the already-loaded relations for the response and the fan-out
	t.User = *buyer
	t.Product = *product
	t.Shop = product.Shop
	return t, nil
}

func placeOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

// UpdateStatus moves a transaction along the lifecycle. Delivery credits the
// product's sold counter exactly once; cancellation restores the reserved
// stock. Both side effects share the status flip's DB transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, principal *auth.Claims, id uint, next domain.Status) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "order.update_status",
		trace.WithAttributes(
			attribute.Int64("transaction.id", int64(id)),
			attribute.String("status.next", string(next)),
		))
	defer span.End()

	t, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !t.Status.CanTransition(next) {
		err := fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, t.Status, next)
		span.RecordError(err)
		return nil, err
	}
	if err := s.authorizeTransition(principal, t, next); err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now()
	switch next {
	case domain.StatusOnDelivery:
		err = s.transactions.TransitionStatus(ctx, t.ID, domain.StatusPending, domain.StatusOnDelivery,
			map[string]any{"delivered_at": now})

	case domain.StatusDelivered:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// the CAS on the prior status is the exactly-once guard for sold
			if e := s.transactions.WithTx(tx).TransitionStatus(ctx, t.ID, domain.StatusOnDelivery, domain.StatusDelivered,
				map[string]any{"confirmed_at": now}); e != nil {
				return e
			}
			return s.inventory.WithTx(tx).RecordFulfillment(ctx, t.ProductID, t.Quantity)
		})

	case domain.StatusCanceled:
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if e := s.transactions.WithTx(tx).TransitionStatus(ctx, t.ID, domain.StatusPending, domain.StatusCanceled, nil); e != nil {
				return e
			}
			// canceled orders put their reserved units back
			return s.inventory.WithTx(tx).Restore(ctx, t.ProductID, t.Quantity)
		})

	default:
		err = fmt.Errorf("%w: cannot enter %s", domain.ErrInvalidTransition, next)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	orderTransitions.WithLabelValues(string(next)).Inc()
	return s.transactions.FindByID(ctx, id)
}

// Cancel is the pending-only shortcut to the canceled state.
func (s *OrderService) Cancel(ctx context.Context, principal *auth.Claims, id uint) (*domain.Transaction, error) {
	return s.UpdateStatus(ctx, principal, id, domain.StatusCanceled)
}

// authorizeTransition enforces who may drive which edge: the selling side
// ships, the buying side confirms receipt or cancels, admins may do anything.
func (s *OrderService) authorizeTransition(p *auth.Claims, t *domain.Transaction, next domain.Status) error {
	if p == nil {
		return fmt.Errorf("%w: no principal", domain.ErrForbidden)
	}
	if p.Role == domain.RoleAdmin {
		return nil
	}
	switch next {
	case domain.StatusOnDelivery:
		if p.Role == domain.RoleSeller && p.ShopID == t.ShopID {
			return nil
		}
	case domain.StatusDelivered, domain.StatusCanceled:
		if p.UID == t.UserID {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed to set %s on transaction %d", domain.ErrForbidden, next, t.ID)
}

// Get returns a transaction the principal is allowed to see.
func (s *OrderService) Get(ctx context.Context, principal *auth.Claims, id uint) (*domain.Transaction, error) {
	t, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.Role == domain.RoleAdmin:
	case principal.UID == t.UserID:
	case principal.Role == domain.RoleSeller && principal.ShopID == t.ShopID:
	default:
		// hide existence from strangers
		return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	return t, nil
}

// List scopes transactions by role: buyers see their own orders, sellers their
// shop's, admins everything.
func (s *OrderService) List(ctx context.Context, principal *auth.Claims, status domain.Status, offset, limit int) ([]domain.Transaction, int64, error) {
	q := repo.ListTransactionsQuery{Status: status, Offset: offset, Limit: limit}
	switch principal.Role {
	case domain.RoleAdmin:
	case domain.RoleSeller:
		shopID := principal.ShopID
		if shopID == 0 {
			shop, err := s.shops.FindByUserID(ctx, principal.UID)
			if err != nil {
				return nil, 0, err
			}
			shopID = shop.ID
		}
		q.ShopID = shopID
	default:
		q.UserID = principal.UID
	}
	return s.transactions.List(ctx, q)
}

// Remove soft-deletes a transaction (admin audit path).
func (s *OrderService) Remove(ctx context.Context, principal *auth.Claims, id uint) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	return s.transactions.SoftDelete(ctx, id)
}
