package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Access tokens authenticate requests; verify tokens are the
// one-shot links mailed out for account / password confirmation.
const (
	PurposeAccess        = "access"
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

type Claims struct {
	UID     uint   `json:"uid"`
	Role    string `json:"role"` // admin / seller / buyer
	ShopID  uint   `json:"shopId,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (j *JWTer) Issue(uid uint, role string, shopID uint) (string, error) {
	return j.issue(uid, role, shopID, PurposeAccess, j.TTL)
}

// IssueFor mints a purpose-bound token with its own TTL (mail links).
func (j *JWTer) IssueFor(uid uint, purpose string, ttl time.Duration) (string, error) {
	return j.issue(uid, "", 0, purpose, ttl)
}

func (j *JWTer) issue(uid uint, role string, shopID uint, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:     uid,
		Role:    role,
		ShopID:  shopID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// ParseFor parses and additionally pins the token purpose.
func (j *JWTer) ParseFor(tokenStr, purpose string) (*Claims, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	want := purpose
	if want == PurposeAccess {
		// legacy access tokens carry no purpose claim
		if c.Purpose != "" && c.Purpose != PurposeAccess {
			return nil, errors.New("invalid token purpose")
		}
		return c, nil
	}
	if c.Purpose != want {
		return nil, errors.New("invalid token purpose")
	}
	return c, nil
}
