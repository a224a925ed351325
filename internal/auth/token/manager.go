// Package token owns validity checking and refresh of the OAuth access
// token. The Manager is the only component that mutates credential state;
// every other component reads tokens through ValidAccessToken.
package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/receiptdrop/receiptdrop/internal/auth/session"
	"golang.org/x/oauth2"
)

// ErrUnauthenticated means there are no usable credentials. The caller must
// destroy the session and send the user back through the login flow; a stale
// token is never returned.
var ErrUnauthenticated = errors.New("token: unauthenticated")

// refreshMargin refreshes ahead of expiry rather than racing the provider
// clock at the exact expiry instant.
const refreshMargin = 5 * time.Minute

// Manager performs the token lifecycle against the configured OAuth
// provider.
type Manager struct {
	oauth *oauth2.Config
	now   func() time.Time
}

// NewManager builds a Manager around an explicit OAuth2 config.
func NewManager(oauth *oauth2.Config) *Manager {
	return &Manager{oauth: oauth, now: time.Now}
}

// ValidAccessToken returns an access token good for at least the refresh
// margin. When a refresh took place the updated user record is returned
// alongside so the caller can write it back to the session store; updated is
// nil when the stored token was still fresh.
func (m *Manager) ValidAccessToken(ctx context.Context, user session.User) (string, *session.User, error) {
	if user.AccessToken == "" || user.RefreshToken == "" {
		return "", nil, ErrUnauthenticated
	}

	expiry := time.UnixMilli(user.ExpiresAt)
	if expiry.Sub(m.now()) >= refreshMargin {
		return user.AccessToken, nil, nil
	}

	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: user.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		log.Printf("❌ Token refresh failed for %s: %v", user.Email, err)
		return "", nil, fmt.Errorf("%w: refresh: %v", ErrUnauthenticated, err)
	}

	// Access token and expiry move together as one unit.
	user.AccessToken = fresh.AccessToken
	user.ExpiresAt = fresh.Expiry.UnixMilli()
	// Providers may omit the refresh token on refresh: keep the old one.
	if fresh.RefreshToken != "" && fresh.RefreshToken != user.RefreshToken {
		log.Printf("🔄 Rotating refresh token for: %s", user.Email)
		user.RefreshToken = fresh.RefreshToken
	}

	log.Printf("✅ Refreshed token for: %s (expires: %s)", user.Email, fresh.Expiry.Format(time.RFC3339))
	return user.AccessToken, &user, nil
}
