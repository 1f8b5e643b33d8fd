// Package auth verifies staff identity tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/qrdine/pkg/config"
	"github.com/example/qrdine/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	Name  string           `json:"name,omitempty"`
	Email string           `json:"email,omitempty"`
	Role  models.StaffRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified staff member behind a request.
type Identity struct {
	StaffID string           `json:"staffId"`
	Name    string           `json:"name,omitempty"`
	Email   string           `json:"email,omitempty"`
	Role    models.StaffRole `json:"role,omitempty"`
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier accepts HS256 tokens from the configured issuer. The subject is
// the staff id.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWTVerifier(cfg config.AuthConfig) *JWTVerifier {
	return &JWTVerifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, now: time.Now}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}

	return &Identity{
		StaffID: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// IssueToken signs a staff token the JWTVerifier for cfg accepts.
func IssueToken(cfg config.AuthConfig, staff models.Staff, now time.Time) (string, error) {
	claims := Claims{
		Name:  staff.Name,
		Email: staff.Email,
		Role:  staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}
