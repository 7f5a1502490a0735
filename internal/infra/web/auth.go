package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminScope is the claim that grants the plan admin API.
const AdminScope = "plans:admin"

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
	errNoScope      = errors.New("token lacks " + AdminScope + " scope")
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	APIKey       string
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(apiKey, secret string, secure bool, domain string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{cfg: AuthConfig{
		APIKey:       apiKey,
		HMACSecret:   []byte(secret),
		CookieName:   "admin_session",
		CookieDomain: domain,
		SecureCookie: secure,
		TTL:          ttl,
	}}
}

type AdminClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// HasScope reports whether the space separated scope claim contains s.
func (c *AdminClaims) HasScope(s string) bool {
	return slices.Contains(strings.Fields(c.Scope), s)
}

// Configured reports whether any credential can pass.
func (a *AuthManager) Configured() bool {
	return a != nil && (a.cfg.APIKey != "" || len(a.cfg.HMACSecret) > 0)
}

// CheckAPIKey compares key against the configured admin key in constant time.
func (a *AuthManager) CheckAPIKey(key string) bool {
	if a.cfg.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.cfg.APIKey), []byte(key)) == 1
}

// Mint signs an admin token for subject.
func (a *AuthManager) Mint(subject string) (string, error) {
	if len(a.cfg.HMACSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := AdminClaims{
		Scope: AdminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.HMACSecret)
}

// SetSessionCookie stores token in the admin session cookie.
func (a *AuthManager) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// Authenticate accepts `Authorization: Bearer <api key | jwt>` or the session
// cookie and returns the caller name.
func (a *AuthManager) Authenticate(r *http.Request) (string, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		scheme, tok, ok := strings.Cut(hdr, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
			return "", errInvalidToken
		}
		tok = strings.TrimSpace(tok)
		if a.CheckAPIKey(tok) {
			return "api_key", nil
		}
		return a.parse(tok)
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return "", errMissingToken
}

func (a *AuthManager) parse(tok string) (string, error) {
	if len(a.cfg.HMACSecret) == 0 {
		return "", errInvalidToken
	}
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return "", errInvalidToken
	}
	if !claims.HasScope(AdminScope) {
		return "", errNoScope
	}
	if claims.Subject == "" {
		return "jwt", nil
	}
	return "jwt:" + claims.Subject, nil
}
