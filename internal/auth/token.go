package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("authorization header is missing")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the caller as asserted by a verified token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// ExtractTokenFromRequest extracts a bearer token from the Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}

// Claims carried by tokens the service accepts. Keycloak puts roles under
// realm_access; locally signed tokens use the flat role claim.
type Claims struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	jwt.RegisteredClaims
}

func (c Claims) identity(adminRole string) Identity {
	role := c.Role
	for _, r := range c.RealmAccess.Roles {
		if r == adminRole {
			role = r
			break
		}
	}
	return Identity{UserID: c.Subject, Email: c.Email, Name: c.Name, Role: role}
}

// HMACVerifier checks HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret    []byte
	adminRole string
}

func NewHMACVerifier(secret, adminRole string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), adminRole: adminRole}
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: subject claim not found", ErrInvalidToken)
	}
	return claims.identity(v.adminRole), nil
}

// Sign issues an HS256 token for id. Used by the admin CLI and tests.
func (v *HMACVerifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// OIDCVerifier checks tokens issued by an OpenID Connect provider.
type OIDCVerifier struct {
	verifier  *oidc.IDTokenVerifier
	adminRole string
}

func NewOIDCVerifier(ctx context.Context, issuer, adminRole string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return &OIDCVerifier{verifier: verifier, adminRole: adminRole}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: failed to parse claims", ErrInvalidToken)
	}
	claims.Subject = idToken.Subject
	return claims.identity(v.adminRole), nil
}
