package auth

import (
	"errors"
	"testing"
	"time"

	"marketplace-api/internal/domain"
)

func testJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	j := testJWTer()
	token, err := j.Issue(42, "seller", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := j.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UID != 42 || c.Role != "seller" || c.ShopID != 7 {
		t.Errorf("claims = %+v", c)
	}
	if c.Purpose != PurposeAccess {
		t.Errorf("purpose = %q, want access", c.Purpose)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := testJWTer().Issue(1, "buyer", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := &JWTer{Secret: []byte("different"), Issuer: "test", TTL: time.Hour}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Hour}
	token, err := other.Issue(1, "buyer", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := testJWTer().Parse(token); err == nil {
		t.Fatal("token from another issuer must not parse")
	}
}

// Purpose pinning: a mail link token must never authenticate a request, and
// an access token must never redeem a mail link.
func TestParseForPinsPurpose(t *testing.T) {
	j := testJWTer()

	reset, err := j.IssueFor(1, PurposeResetPassword, time.Hour)
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}
	if _, err := j.ParseFor(reset, PurposeAccess); err == nil {
		t.Error("reset token accepted as access token")
	}
	if _, err := j.ParseFor(reset, PurposeVerifyEmail); err == nil {
		t.Error("reset token accepted as verify token")
	}
	if _, err := j.ParseFor(reset, PurposeResetPassword); err != nil {
		t.Errorf("reset token rejected for its own purpose: %v", err)
	}

	access, err := j.Issue(1, "buyer", 0)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := j.ParseFor(access, PurposeResetPassword); err == nil {
		t.Error("access token accepted as reset token")
	}
	if _, err := j.ParseFor(access, PurposeAccess); err != nil {
		t.Errorf("access token rejected: %v", err)
	}
}

func TestParseForExpiredToken(t *testing.T) {
	j := testJWTer()
	token, err := j.IssueFor(1, PurposeVerifyEmail, -2*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := j.ParseFor(token, PurposeVerifyEmail); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestAuthorize(t *testing.T) {
	seller := &Claims{UID: 1, Role: domain.RoleSeller}

	if err := Authorize(seller, domain.RoleSeller, domain.RoleAdmin); err != nil {
		t.Errorf("seller vs seller|admin: %v", err)
	}
	if err := Authorize(seller, domain.RoleAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("seller vs admin: err = %v, want ErrForbidden", err)
	}
	if err := Authorize(nil, domain.RoleBuyer); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("nil claims: err = %v, want ErrForbidden", err)
	}
	// no role constraint means any authenticated principal passes
	if err := Authorize(seller); err != nil {
		t.Errorf("no constraint: %v", err)
	}
}
