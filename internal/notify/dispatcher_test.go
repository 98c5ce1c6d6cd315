package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"marketplace-api/internal/domain"
)

// scriptedNotifier fails the first n sends, then succeeds, recording
// everything it was asked to deliver.
type scriptedNotifier struct {
	mu       sync.Mutex
	failures int
	sent     []string // template:recipient
	attempts int
}

func (n *scriptedNotifier) Send(_ context.Context, template, recipient string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.failures > 0 {
		n.failures--
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, template+":"+recipient)
	return nil
}

func TestDispatcherDelivers(t *testing.T) {
	n := &scriptedNotifier{}
	d := NewDispatcher(n, zap.NewNop(), "admin@test.local", "http://base")

	d.UserConfirmation(&domain.User{Name: "Budi", Email: "budi@test.local"}, "tok123")
	d.Close()

	if len(n.sent) != 1 || !strings.HasPrefix(n.sent[0], TplUserConfirmation+":") {
		t.Fatalf("sent = %v", n.sent)
	}
}

func TestDispatcherRetriesOnce(t *testing.T) {
	n := &scriptedNotifier{failures: 1}
	d := NewDispatcher(n, zap.NewNop(), "", "http://base")

	d.PasswordReset("budi@test.local", "tok")
	d.Close()

	if n.attempts != 2 {
		t.Errorf("attempts = %d, want 2", n.attempts)
	}
	if len(n.sent) != 1 {
		t.Errorf("sent = %v, want one delivery", n.sent)
	}
}

// A permanently failing relay must never surface to the caller; the
// dispatcher logs and moves on.
func TestDispatcherSwallowsFailures(t *testing.T) {
	n := &scriptedNotifier{failures: 100}
	d := NewDispatcher(n, zap.NewNop(), "admin@test.local", "http://base")

	d.ShopVerified(&domain.Shop{Name: "toko", User: domain.User{Email: "owner@test.local"}})
	d.Close() // drains without panicking

	if len(n.sent) != 0 {
		t.Errorf("sent = %v, want none", n.sent)
	}
}

func TestDispatcherOrderPlacedFansOutToBothSides(t *testing.T) {
	n := &scriptedNotifier{}
	d := NewDispatcher(n, zap.NewNop(), "", "http://base")

	d.OrderPlaced(&domain.Transaction{
		ID:       1,
		Quantity: 2,
		Total:    500,
		User:     domain.User{Name: "Budi", Email: "buyer@test.local"},
		Product:  domain.Product{Name: "kopi"},
		Shop: domain.Shop{
			Name: "toko",
			User: domain.User{Name: "Siti", Email: "seller@test.local"},
		},
	})
	d.Close()

	if len(n.sent) != 2 {
		t.Fatalf("sent = %v, want buyer and seller mail", n.sent)
	}
	joined := strings.Join(n.sent, " ")
	if !strings.Contains(joined, TplOrderPlacedBuyer+":buyer@test.local") {
		t.Errorf("no buyer mail in %v", n.sent)
	}
	if !strings.Contains(joined, TplOrderPlacedSeller+":seller@test.local") {
		t.Errorf("no seller mail in %v", n.sent)
	}
}

func TestRender(t *testing.T) {
	subject, body, err := Render(TplOrderPlacedBuyer, map[string]any{
		"Name": "Budi", "TransactionID": uint(7), "Quantity": 2,
		"ProductName": "kopi", "ShopName": "toko", "Total": 500,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject == "" {
		t.Error("empty subject")
	}
	for _, want := range []string{"Budi", "#7", "2x kopi", "toko", "500"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	if _, _, err := Render("no_such_template", nil); err == nil {
		t.Error("unknown template must error")
	}
}
