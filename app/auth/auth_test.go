package auth

import (
	"context"
	"testing"
	"time"

	"inkpress/app/apperr"
	"inkpress/app/models"
	"inkpress/app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestProvider(t *testing.T) (*Provider, *repositories.Repository) {
	t.Helper()
	repo, err := repositories.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})

	p, err := NewProvider(Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost}, repo.Users)
	require.NoError(t, err)
	return p, repo
}

func TestNewProviderRequiresSecret(t *testing.T) {
	_, err := NewProvider(Config{}, nil)
	assert.Error(t, err)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	user, err := p.Register(ctx, "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, []byte("s3cret"), user.PasswordHash)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := p.Authenticate(ctx, "ALICE@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "alice@example.com", "nope")
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
		assert.Equal(t, "Invalid credentials", apperr.Public(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "bob@example.com", "s3cret")
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := p.Authenticate(ctx, "", "")
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := p.Register(ctx, "Alice Again", "alice@example.com", "other")
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		assert.Equal(t, "Email already in use", apperr.Public(err))
	})
}

func TestRegisterValidation(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
		want                        string
	}{
		{"missing name", "", "a@example.com", "pw", "Name, email and password are required"},
		{"missing password", "A", "a@example.com", "", "Name, email and password are required"},
		{"bad email", "A", "not-an-email", "pw", "Email must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Register(ctx, tt.user, tt.email, tt.password)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
			assert.Equal(t, tt.want, apperr.Public(err))
		})
	}
}

func TestTokens(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	user, err := p.Register(ctx, "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	token, err := p.IssueToken(user.Subject())
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		subject, err := p.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, &models.Subject{ID: user.ID, Name: "Alice"}, subject)
	})

	t.Run("expires after seven days", func(t *testing.T) {
		issued := time.Now()
		p.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Minute) }
		defer func() { p.now = time.Now }()

		_, err := p.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewProvider(Config{Secret: "other"}, p.users)
		require.NoError(t, err)
		_, err = other.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "inkpress",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		raw, err := forged.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		raw, err := p.IssueToken(&models.Subject{ID: "ghost"})
		require.NoError(t, err)
		_, err = p.VerifyToken(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := p.VerifyToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
