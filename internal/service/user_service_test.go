package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/repo"
	"marketplace-api/pkg/utils"
)

type recordingAccountNotifier struct {
	confirmations []string // tokens
	resets        []string
}

func (n *recordingAccountNotifier) UserConfirmation(_ *domain.User, token string) {
	n.confirmations = append(n.confirmations, token)
}

func (n *recordingAccountNotifier) PasswordReset(_, token string) {
	n.resets = append(n.resets, token)
}

func testJWTer() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
}

func newUserFixture(t *testing.T) (*gorm.DB, *UserService, *recordingAccountNotifier) {
	t.Helper()
	db := newTestDB(t)
	n := &recordingAccountNotifier{}
	svc := NewUserService(repo.NewUserRepo(db), testJWTer(), &fakeStore{}, n)
	return db, svc, n
}

func TestRegisterAndConfirm(t *testing.T) {
	_, svc, n := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Name: "Budi", Email: "budi@test.local", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleBuyer {
		t.Errorf("role = %s, want buyer", u.Role)
	}
	if u.IsVerified {
		t.Error("fresh account must start unverified")
	}
	if len(n.confirmations) != 1 {
		t.Fatalf("confirmation mails = %d, want 1", len(n.confirmations))
	}

	got, err := svc.ConfirmEmail(ctx, n.confirmations[0])
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !got.IsVerified {
		t.Error("account not verified after confirmation")
	}

	// confirming again is harmless
	if _, err := svc.ConfirmEmail(ctx, n.confirmations[0]); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
}

func TestConfirmRejectsAccessToken(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Budi", Email: "budi@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	access, err := testJWTer().Issue(u.ID, u.Role, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ConfirmEmail(ctx, access); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("confirm with access token: err = %v, want ErrForbidden", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	in := RegisterInput{Name: "Budi", Email: "budi@test.local", Password: "secret123"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, in)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second register: err = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	db, svc, _ := newUserFixture(t)
	ctx := context.Background()
	f := seed(t, db)
	u := f.user("budi", domain.RoleBuyer, true)
	db.Model(u).Update("password_hash", utils.HashPassword("secret123"))

	token, got, err := svc.Login(ctx, u.Email, "secret123", "", 0)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || got.ID != u.ID {
		t.Fatalf("login returned token %q user %d", token, got.ID)
	}
	claims, err := testJWTer().ParseFor(token, auth.PurposeAccess)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UID != u.ID || claims.Role != domain.RoleBuyer {
		t.Errorf("claims = %+v", claims)
	}

	if _, _, err := svc.Login(ctx, u.Email, "wrong", "", 0); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("wrong password: err = %v, want ErrForbidden", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@test.local", "secret123", "", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown email: err = %v, want ErrNotFound", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	db, svc, n := newUserFixture(t)
	ctx := context.Background()
	f := seed(t, db)
	u := f.user("budi", domain.RoleBuyer, true)
	db.Model(u).Update("password_hash", utils.HashPassword("oldpass123"))

	// unknown addresses are silently accepted
	if err := svc.RequestPasswordReset(ctx, "nobody@test.local"); err != nil {
		t.Fatalf("unknown address: %v", err)
	}
	if len(n.resets) != 0 {
		t.Fatalf("reset mails for unknown address = %d", len(n.resets))
	}

	if err := svc.RequestPasswordReset(ctx, u.Email); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(n.resets) != 1 {
		t.Fatalf("reset mails = %d, want 1", len(n.resets))
	}

	if err := svc.ResetPassword(ctx, n.resets[0], "newpass123"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "newpass123", "", 0); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(ctx, u.Email, "oldpass123", "", 0); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("old password still works: err = %v", err)
	}
}

func TestBan(t *testing.T) {
	db, svc, _ := newUserFixture(t)
	ctx := context.Background()
	f := seed(t, db)
	admin := f.user("root", domain.RoleAdmin, true)
	target := f.user("budi", domain.RoleBuyer, true)
	adminPrincipal := &auth.Claims{UID: admin.ID, Role: domain.RoleAdmin}

	if err := svc.Ban(ctx, buyerClaims(target), admin.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("buyer ban: err = %v, want ErrForbidden", err)
	}
	if err := svc.Ban(ctx, adminPrincipal, admin.ID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("self ban: err = %v, want ErrInvalidInput", err)
	}
	if err := svc.Ban(ctx, adminPrincipal, target.ID); err != nil {
		t.Fatalf("ban: %v", err)
	}
	// banned accounts disappear from lookups, so login fails
	if _, _, err := svc.Login(ctx, target.Email, "whatever", "", 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("login after ban: err = %v, want ErrNotFound", err)
	}

	// the roster still shows them when asked
	_, total, err := svc.ListUsers(ctx, adminPrincipal, repo.ListUsersQuery{WithDeleted: true, Limit: 10})
	if err != nil {
		t.Fatalf("list with deleted: %v", err)
	}
	if total != 2 {
		t.Errorf("roster total = %d, want 2", total)
	}
	_, total, err = svc.ListUsers(ctx, adminPrincipal, repo.ListUsersQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Errorf("active total = %d, want 1", total)
	}
}

func TestCreateAdmin(t *testing.T) {
	db, svc, _ := newUserFixture(t)
	ctx := context.Background()
	f := seed(t, db)
	admin := f.user("root", domain.RoleAdmin, true)
	adminPrincipal := &auth.Claims{UID: admin.ID, Role: domain.RoleAdmin}

	u, err := svc.CreateAdmin(ctx, adminPrincipal, RegisterInput{
		Name: "ops", Email: "ops@test.local", Password: "hunter22pass",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", u.Role)
	}
	if !u.IsVerified {
		t.Error("new admin should be verified immediately")
	}
	// credentials work straight away
	if _, _, err := svc.Login(ctx, "ops@test.local", "hunter22pass", domain.RoleAdmin, 0); err != nil {
		t.Errorf("login as new admin: %v", err)
	}

	seller := f.user("seller", domain.RoleSeller, true)
	if _, err := svc.CreateAdmin(ctx, sellerClaimsOf(seller), RegisterInput{
		Name: "x", Email: "x@test.local", Password: "hunter22pass",
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("seller create admin: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.CreateAdmin(ctx, adminPrincipal, RegisterInput{
		Name: "dup", Email: "ops@test.local", Password: "hunter22pass",
	}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate email: err = %v, want ErrConflict", err)
	}

	if _, err := svc.CreateAdmin(ctx, adminPrincipal, RegisterInput{Name: "nopass"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing credentials: err = %v, want ErrInvalidInput", err)
	}
}
