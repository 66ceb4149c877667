package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued at sign-in.
type Claims struct {
	jwt.RegisteredClaims
	Role              string `json:"role"`
	Name              string `json:"name"`
	LicenseID         string `json:"license_id,omitempty"`
	PatientID         string `json:"patient_id,omitempty"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

// Manager issues and validates HS256 session tokens. Sign-out is a
// revocation: the token's JTI is blacklisted until its natural expiry.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
	revoked    *TokenRevocationStore
	nowFn      func() time.Time
}

// NewManager builds a Manager. The revocation store may be shared with
// other components; Manager never closes it.
func NewManager(signingKey []byte, ttl time.Duration, revoked *TokenRevocationStore) *Manager {
	return &Manager{
		signingKey: signingKey,
		ttl:        ttl,
		revoked:    revoked,
		nowFn:      time.Now,
	}
}

// Issue signs a token for the actor and returns it with its claims.
func (m *Manager) Issue(a Actor) (string, *Claims, error) {
	if !ValidRole(a.Role) {
		return "", nil, fmt.Errorf("unknown role %q", a.Role)
	}

	now := m.nowFn()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role:              string(a.Role),
		Name:              a.Name,
		LicenseID:         a.LicenseID,
		PatientID:         a.PatientID,
		PreferredLanguage: a.PreferredLanguage,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates a token string and returns the actor it carries.
// Revoked and expired tokens are rejected.
func (m *Manager) Parse(tokenStr string) (Actor, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.nowFn))
	if err != nil || !token.Valid {
		return Actor{}, nil, fmt.Errorf("invalid token")
	}
	if m.revoked != nil && m.revoked.IsRevoked(claims.ID) {
		return Actor{}, nil, fmt.Errorf("token revoked")
	}

	return Actor{
		ID:                claims.Subject,
		Name:              claims.Name,
		Role:              Role(claims.Role),
		LicenseID:         claims.LicenseID,
		PatientID:         claims.PatientID,
		PreferredLanguage: claims.PreferredLanguage,
		TokenID:           claims.ID,
	}, claims, nil
}

// Revoke blacklists the token carrying the given claims until its expiry.
func (m *Manager) Revoke(claims *Claims) {
	if m.revoked == nil || claims == nil {
		return
	}
	exp := m.nowFn().Add(m.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	m.revoked.RevokeForUser(claims.ID, claims.Subject, exp)
}

// RevokeActor blacklists the token the actor presented. The exact expiry
// is not carried on Actor, so the full session TTL is used; the store
// drops the entry once it lapses.
func (m *Manager) RevokeActor(a Actor) {
	if m.revoked == nil || a.TokenID == "" {
		return
	}
	m.revoked.RevokeForUser(a.TokenID, a.ID, m.nowFn().Add(m.ttl))
}
