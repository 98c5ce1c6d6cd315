package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/media"
	"marketplace-api/internal/repo"
	"marketplace-api/pkg/utils"
)

const (
	verifyTokenTTL = 48 * time.Hour
	resetTokenTTL  = time.Hour
)

// AccountNotifier is the slice of the dispatcher account flows need.
type AccountNotifier interface {
	UserConfirmation(u *domain.User, token string)
	PasswordReset(email, token string)
}

// UserService covers registration, email confirmation, login and profile
// maintenance.
type UserService struct {
	users    *repo.UserRepo
	jwter    *auth.JWTer
	images   media.Store
	notifier AccountNotifier
}

func NewUserService(users *repo.UserRepo, jwter *auth.JWTer, images media.Store, notifier AccountNotifier) *UserService {
	return &UserService{users: users, jwter: jwter, images: images, notifier: notifier}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Address     string
	PhoneNumber string
}

// Register creates an unverified buyer account and mails a confirmation link.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         domain.RoleBuyer,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.jwter.IssueFor(u.ID, auth.PurposeVerifyEmail, verifyTokenTTL)
	if err == nil {
		s.notifier.UserConfirmation(u, token)
	}
	return u, nil
}

// ConfirmEmail redeems a mailed verification token.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwter.ParseFor(token, auth.PurposeVerifyEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return nil, err
	}
	if !u.IsVerified {
		if err := s.users.UpdateFields(ctx, u.ID, map[string]any{"is_verified": true}); err != nil {
			return nil, err
		}
		u.IsVerified = true
	}
	return u, nil
}

// Login checks credentials and returns a signed access token. Role narrows
// the lookup when the same address is registered more than once.
func (s *UserService) Login(ctx context.Context, email, password, role string, shopID uint) (string, *domain.User, error) {
	var (
		u   *domain.User
		err error
	)
	if role != "" {
		u, err = s.users.FindByEmailRole(ctx, email, role)
	} else {
		u, err = s.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return "", nil, err
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrForbidden)
	}
	token, err := s.jwter.Issue(u.ID, u.Role, shopID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// do not leak which addresses exist
		return nil
	}
	token, err := s.jwter.IssueFor(u.ID, auth.PurposeResetPassword, resetTokenTTL)
	if err != nil {
		return err
	}
	s.notifier.PasswordReset(u.Email, token)
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwter.ParseFor(token, auth.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	return s.users.UpdateFields(ctx, claims.UID, map[string]any{
		"password_hash": utils.HashPassword(newPassword),
	})
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

type UpdateProfileInput struct {
	Name        *string
	Address     *string
	PhoneNumber *string
	Picture     []byte
	PictureName string
}

func (s *UserService) UpdateProfile(ctx context.Context, principal *auth.Claims, in UpdateProfileInput) (*domain.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.PhoneNumber != nil {
		fields["phone_number"] = *in.PhoneNumber
	}
	if len(in.Picture) > 0 {
		asset, err := s.images.Upload(ctx, in.Picture, in.PictureName, media.FolderUsers)
		if err != nil {
			return nil, err
		}
		fields["profile_picture"] = asset.URL
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, principal.UID, fields); err != nil {
			return nil, err
		}
	}
	return s.users.FindByID(ctx, principal.UID)
}

// ListUsers is the admin roster view.
func (s *UserService) ListUsers(ctx context.Context, principal *auth.Claims, q repo.ListUsersQuery) ([]domain.User, int64, error) {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, q)
}

// CreateAdmin provisions a back-office account. The account is verified on
// the spot, there is no confirmation mail to click through.
func (s *UserService) CreateAdmin(ctx context.Context, principal *auth.Claims, in RegisterInput) (*domain.User, error) {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         domain.RoleAdmin,
		IsVerified:   true,
		Address:      in.Address,
		PhoneNumber:  in.PhoneNumber,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Ban soft-deletes an account so its credentials stop working but its
// transaction history stays intact. Admins cannot ban themselves.
func (s *UserService) Ban(ctx context.Context, principal *auth.Claims, id uint) error {
	if err := auth.Authorize(principal, domain.RoleAdmin); err != nil {
		return err
	}
	if id == principal.UID {
		return fmt.Errorf("%w: cannot ban your own account", domain.ErrInvalidInput)
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, id)
}
