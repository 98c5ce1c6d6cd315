package response

import (
	"errors"
	"fmt"
	"testing"

	"marketplace-api/internal/domain"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad quantity", domain.ErrInvalidInput), CodeBadRequest},
		{fmt.Errorf("%w: product 7", domain.ErrNotFound), CodeNotFound},
		{fmt.Errorf("%w: role buyer", domain.ErrForbidden), CodeForbidden},
		{fmt.Errorf("%w: shop exists", domain.ErrConflict), CodeConflict},
		{fmt.Errorf("%w: product 7", domain.ErrInsufficientStock), CodeUnprocessable},
		{fmt.Errorf("%w: delivered -> pending", domain.ErrInvalidTransition), CodeUnprocessable},
		{fmt.Errorf("%w: media host", domain.ErrExternalService), CodeBadGateway},
	}
	for _, c := range cases {
		if got := FromError(c.err); got.Code != c.code {
			t.Errorf("FromError(%v).Code = %d, want %d", c.err, got.Code, c.code)
		}
	}
}

// Unknown errors must not leak their message.
func TestFromErrorHidesInternals(t *testing.T) {
	r := FromError(errors.New("pq: connection refused host=10.0.0.3"))
	if r.Code != CodeServerError {
		t.Fatalf("code = %d, want %d", r.Code, CodeServerError)
	}
	if r.Msg != "internal error" {
		t.Errorf("msg = %q leaks internals", r.Msg)
	}
}

func TestOKEnvelopeKeepsDataNonNull(t *testing.T) {
	r := OK(nil)
	if r.Data == nil {
		t.Error("data must not be nil in the envelope")
	}
	if r.Code != CodeOK {
		t.Errorf("code = %d", r.Code)
	}
}
