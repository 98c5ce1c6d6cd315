package notify

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"marketplace-api/internal/domain"
)

var notificationsSent = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "notifications_sent_total", Help: "Count of dispatched notifications"},
	[]string{"template", "outcome"},
)

func init() { prometheus.MustRegister(notificationsSent) }

type job struct {
	template  string
	recipient string
	data      map[string]any
}

// Dispatcher fans out messages on a background worker. Enqueue never blocks
// the caller beyond the buffer; failures are retried once and then logged,
// never propagated to the workflow that triggered them.
type Dispatcher struct {
	n     Notifier
	log   *zap.Logger
	queue chan job
	done  chan struct{}

	adminAddr string
	baseURL   string
}

func NewDispatcher(n Notifier, log *zap.Logger, adminAddr, baseURL string) *Dispatcher {
	d := &Dispatcher{
		n:         n,
		log:       log,
		queue:     make(chan job, 256),
		done:      make(chan struct{}),
		adminAddr: adminAddr,
		baseURL:   baseURL,
	}
	go d.run()
	return d
}

// Close stops accepting work and drains the queue.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := d.n.Send(ctx, j.template, j.recipient, j.data)
	if err != nil {
		// one retry, then give up loudly
		time.Sleep(500 * time.Millisecond)
		err = d.n.Send(ctx, j.template, j.recipient, j.data)
	}
	if err != nil {
		notificationsSent.WithLabelValues(j.template, "error").Inc()
		d.log.Error("notification dispatch failed",
			zap.String("template", j.template),
			zap.String("recipient", j.recipient),
			zap.Error(err),
		)
		return
	}
	notificationsSent.WithLabelValues(j.template, "ok").Inc()
}

func (d *Dispatcher) enqueue(template, recipient string, data map[string]any) {
	if recipient == "" {
		return
	}
	select {
	case d.queue <- job{template: template, recipient: recipient, data: data}:
	default:
		notificationsSent.WithLabelValues(template, "dropped").Inc()
		d.log.Warn("notification queue full, dropping",
			zap.String("template", template),
			zap.String("recipient", recipient),
		)
	}
}

// OrderPlaced notifies both sides of a freshly created transaction.
func (d *Dispatcher) OrderPlaced(t *domain.Transaction) {
	common := map[string]any{
		"TransactionID": t.ID,
		"ProductName":   t.Product.Name,
		"ShopName":      t.Shop.Name,
		"Quantity":      t.Quantity,
		"Total":         t.Total,
		"BuyerName":     t.User.Name,
	}
	buyer := cloneWith(common, "Name", t.User.Name)
	seller := cloneWith(common, "Name", t.Shop.User.Name)
	d.enqueue(TplOrderPlacedBuyer, t.User.Email, buyer)
	d.enqueue(TplOrderPlacedSeller, t.Shop.User.Email, seller)
}

func (d *Dispatcher) ShopVerified(s *domain.Shop) {
	d.enqueue(TplShopVerified, s.User.Email, map[string]any{
		"Name":     s.User.Name,
		"ShopName": s.Name,
	})
}

// ShopSubmitted tells the operators a new shop needs review.
func (d *Dispatcher) ShopSubmitted(s *domain.Shop) {
	d.enqueue(TplShopSubmitted, d.adminAddr, map[string]any{
		"ShopName":  s.Name,
		"OwnerName": s.User.Name,
	})
}

func (d *Dispatcher) UserConfirmation(u *domain.User, token string) {
	d.enqueue(TplUserConfirmation, u.Email, map[string]any{
		"Name": u.Name,
		"URL":  d.baseURL + "/api/v1/auth/confirm?token=" + token,
	})
}

func (d *Dispatcher) PasswordReset(email, token string) {
	d.enqueue(TplPasswordReset, email, map[string]any{
		"URL": d.baseURL + "/reset-password?token=" + token,
	})
}

func cloneWith(m map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for key, val := range m {
		out[key] = val
	}
	out[k] = v
	return out
}
