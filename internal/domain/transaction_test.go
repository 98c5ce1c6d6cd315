package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusOnDelivery, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusDelivered, false}, // no skipping delivery
		{StatusPending, StatusPending, false},
		{StatusOnDelivery, StatusDelivered, true},
		{StatusOnDelivery, StatusCanceled, false},
		{StatusOnDelivery, StatusPending, false},
		{StatusDelivered, StatusOnDelivery, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusCanceled, StatusPending, false},
		{StatusCanceled, StatusOnDelivery, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusOnDelivery.Terminal() {
		t.Error("pending and on_delivery are not terminal")
	}
	if !StatusDelivered.Terminal() || !StatusCanceled.Terminal() {
		t.Error("delivered and canceled are terminal")
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "on_delivery", "delivered", "canceled"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("ParseStatus(%q): %v", valid, err)
		}
	}
	for _, bad := range []string{"", "shipped", "PENDING", "cancelled"} {
		if _, err := ParseStatus(bad); err == nil {
			t.Errorf("ParseStatus(%q) accepted", bad)
		}
	}
}
