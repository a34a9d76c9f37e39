package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/docvault/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrWrongKind    = fmt.Errorf("%w: wrong token type", ErrInvalidToken)
)

type Claims struct {
	Role      user.Role `json:"role"`
	TokenType Kind      `json:"typ"`
	jwt.RegisteredClaims
}

// UserID decodes the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// Manager issues and validates stateless HS256 tokens. Nothing is persisted:
// a token stops working only when it expires.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL time.Duration, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for both issuing and validating.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) IssueAccessToken(userID int64, role user.Role) (string, error) {
	return m.issue(userID, role, KindAccess, m.accessTTL)
}

func (m *Manager) IssueRefreshToken(userID int64, role user.Role) (string, error) {
	return m.issue(userID, role, KindRefresh, m.refreshTTL)
}

func (m *Manager) issue(userID int64, role user.Role, kind Kind, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		Role:      role,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate checks signature, expiry and that the token is of the wanted kind.
func (m *Manager) Validate(tokenStr string, want Kind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != want {
		return nil, ErrWrongKind
	}

	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.Validate(tokenStr, KindAccess)
}

func (m *Manager) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return m.Validate(tokenStr, KindRefresh)
}
