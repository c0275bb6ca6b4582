// Package session resolves the signed-in user from the backend token.
//
// The client never authenticates. It only decodes the claims of a token the
// backend issued; signature verification is the server's job.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/models"
)

// TokenKey is the settings key the backend token is stored under
const TokenKey = "session_token"

// Claims is the payload of a backend token
type Claims struct {
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Store persists the token between runs
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Provider supplies the current identity
type Provider struct {
	store    Store
	envToken string
	now      func() time.Time
}

// NewProvider returns a provider backed by store. A non-empty envToken takes
// precedence over the stored one.
func NewProvider(store Store, envToken string) *Provider {
	return &Provider{store: store, envToken: strings.TrimSpace(envToken), now: time.Now}
}

// Token returns the raw token, or a notSignedIn error
func (p *Provider) Token() (string, error) {
	if p.envToken != "" {
		return p.envToken, nil
	}
	if p.store == nil {
		return "", apperr.Forbidden(apperr.CodeNotSignedIn)
	}
	tok, err := p.store.GetSetting(TokenKey)
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	if tok == "" {
		return "", apperr.Forbidden(apperr.CodeNotSignedIn)
	}
	return tok, nil
}

// Current decodes the token into the signed-in user
func (p *Provider) Current() (models.User, error) {
	tok, err := p.Token()
	if err != nil {
		return models.User{}, err
	}
	return p.decode(tok)
}

// SignIn checks that token decodes into a user and stores it
func (p *Provider) SignIn(token string) (models.User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	u, err := p.decode(token)
	if err != nil {
		return models.User{}, err
	}
	if err := p.store.SetSetting(TokenKey, token); err != nil {
		return models.User{}, fmt.Errorf("store session token: %w", err)
	}
	return u, nil
}

// SignOut forgets the stored token
func (p *Provider) SignOut() error {
	if err := p.store.DeleteSetting(TokenKey); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}

func (p *Provider) decode(token string) (models.User, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.User{}, &apperr.Error{Kind: apperr.KindForbidden, Code: apperr.CodeSessionInvalid, Err: err}
	}
	if claims.Subject == "" {
		return models.User{}, apperr.Forbidden(apperr.CodeSessionInvalid)
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return models.User{}, apperr.Forbidden(apperr.CodeSessionExpired)
	}
	return models.User{
		ID:     claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Avatar: claims.Avatar,
	}, nil
}
