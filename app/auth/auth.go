// Package auth issues and verifies subject tokens and checks passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkpress/app/apperr"
	"inkpress/app/models"
	"inkpress/app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Config carries the secrets and limits of a Provider.
type Config struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Issuer     string
}

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is wrapped by every VerifyToken failure.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Provider authenticates credentials and manages subject tokens.
type Provider struct {
	cfg   Config
	users repositories.UserRepository
	now   func() time.Time
}

// NewProvider creates a provider. An empty secret is rejected.
func NewProvider(cfg Config, users repositories.UserRepository) (*Provider, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "inkpress"
	}
	return &Provider{cfg: cfg, users: users, now: time.Now}, nil
}

// Register creates an account and returns it.
func (p *Provider) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "auth.register"

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.New(apperr.Validation, op, "Name, email and password are required")
	}

	if len(password) > 72 {
		return nil, apperr.New(apperr.Validation, op, "Password cannot exceed 72 bytes")
	}

	user := &models.User{
		Name:      name,
		Email:     email,
		CreatedAt: p.now().UTC(),
	}
	if err := user.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return nil, &apperr.Error{Kind: apperr.Validation, Op: op, Msg: verr.Error(), Err: err}
		}
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	user.PasswordHash = hash

	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &apperr.Error{Kind: apperr.Validation, Op: op, Msg: "Email already in use", Err: err}
		}
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return user, nil
}

// Authenticate checks an email and password pair.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "auth.authenticate"

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.New(apperr.Validation, op, "Email and password are required")
	}

	user, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, op, "Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, &apperr.Error{Kind: apperr.Unauthorized, Op: op, Msg: "Invalid credentials", Err: err}
	}
	return user, nil
}

// IssueToken signs a token for the subject.
func (p *Provider) IssueToken(subject *models.Subject) (string, error) {
	now := p.now()
	c := claims{
		Name: subject.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and expiry of raw and resolves the
// subject it names. Tokens of deleted accounts are rejected.
func (p *Provider) VerifyToken(ctx context.Context, raw string) (*models.Subject, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) {
			return []byte(p.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	user, err := p.users.GetByID(ctx, c.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	return user.Subject(), nil
}
