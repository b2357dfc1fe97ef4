// Package auth validates HMAC-signed bearer tokens and checks the role
// claim required by the catalog routes. Token issuance is out of scope.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Humphrey-He/prodcat/configs"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// ClaimTypesRole is the long role claim name written by some identity
// providers. It is consulted when the configured role claim is absent.
const ClaimTypesRole = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Roles   []string
}

// HasRole reports whether p carries role. Role names compare exactly.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validator checks bearer tokens against the configured key, issuer,
// audience and expiry.
type Validator struct {
	key          []byte
	parser       *jwt.Parser
	requiredRole string
	roleClaim    string
}

// NewValidator creates a validator from cfg.
func NewValidator(cfg configs.AuthConfig) (*Validator, error) {
	return newValidator(cfg, time.Now)
}

func newValidator(cfg configs.AuthConfig, now func() time.Time) (*Validator, error) {
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("auth: signing key is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = "role"
	}

	return &Validator{
		key:          []byte(cfg.SigningKey),
		parser:       jwt.NewParser(opts...),
		requiredRole: cfg.RequiredRole,
		roleClaim:    roleClaim,
	}, nil
}

// RequiredRole returns the role Authorize demands, "" for none.
func (v *Validator) RequiredRole() string {
	return v.requiredRole
}

// Validate parses and verifies token. Every failure wraps
// errors.ErrUnauthorized.
func (v *Validator) Validate(token string) (*Principal, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogerrors.ErrUnauthorized, err)
	}

	subject, _ := claims.GetSubject()
	raw, ok := claims[v.roleClaim]
	if !ok {
		raw = claims[ClaimTypesRole]
	}
	return &Principal{Subject: subject, Roles: roles(raw)}, nil
}

// Authorize checks that p carries the required role. It wraps
// errors.ErrForbidden on failure.
func (v *Validator) Authorize(p *Principal) error {
	if v.requiredRole == "" || p.HasRole(v.requiredRole) {
		return nil
	}
	return fmt.Errorf("%w: role %q required", catalogerrors.ErrForbidden, v.requiredRole)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// roles accepts a single role name or a list of them.
func roles(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}
