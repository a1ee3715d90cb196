package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
)

// Token kinds. A refresh token can only mint a new session, never pass a
// session check directly.
const (
	KindSession = "session"
	KindRefresh = "refresh"
)

// Claims are the JWT claims carried by gateway-issued tokens
type Claims struct {
	jwt.RegisteredClaims
	Kind             string      `json:"kind"`
	Role             models.Role `json:"role,omitempty"`
	IsOwner          bool        `json:"is_owner,omitempty"`
	CanCreateCompany bool        `json:"can_create_company,omitempty"`
	CompanyID        *uuid.UUID  `json:"company_id,omitempty"`
}

// ActorID parses the subject claim
func (c *Claims) ActorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Identity converts the claims into the evaluator-facing identity snapshot
func (c *Claims) Identity() (models.ActorIdentity, error) {
	actorID, err := c.ActorID()
	if err != nil {
		return models.ActorIdentity{}, fmt.Errorf("invalid subject claim: %w", err)
	}
	if !c.Role.IsValid() {
		return models.ActorIdentity{}, fmt.Errorf("invalid role claim: %q", c.Role)
	}
	return models.ActorIdentity{
		ActorID:          actorID,
		Role:             c.Role,
		IsOwner:          c.IsOwner,
		CanCreateCompany: c.CanCreateCompany,
	}, nil
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongKind    = errors.New("wrong token kind")
)

// TokenManager issues and verifies the gateway's own session and refresh
// tokens (HS256)
type TokenManager struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager
func NewTokenManager(secret []byte, issuer string, sessionTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     secret,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueSession mints a session token for the identity
func (m *TokenManager) IssueSession(identity models.ActorIdentity, companyID *uuid.UUID) (string, error) {
	return m.sign(&Claims{
		RegisteredClaims: m.registered(identity.ActorID, m.sessionTTL),
		Kind:             KindSession,
		Role:             identity.Role,
		IsOwner:          identity.IsOwner,
		CanCreateCompany: identity.CanCreateCompany,
		CompanyID:        companyID,
	})
}

// IssueRefresh mints a refresh token for the actor
func (m *TokenManager) IssueRefresh(identity models.ActorIdentity, companyID *uuid.UUID) (string, error) {
	return m.sign(&Claims{
		RegisteredClaims: m.registered(identity.ActorID, m.refreshTTL),
		Kind:             KindRefresh,
		Role:             identity.Role,
		IsOwner:          identity.IsOwner,
		CanCreateCompany: identity.CanCreateCompany,
		CompanyID:        companyID,
	})
}

// VerifySession parses and validates a session token
func (m *TokenManager) VerifySession(token string) (*Claims, error) {
	return m.verify(token, KindSession)
}

// VerifyRefresh parses and validates a refresh token
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, KindRefresh)
}

func (m *TokenManager) registered(actorID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   actorID.String(),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (m *TokenManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) verify(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrWrongKind
	}
	return claims, nil
}
