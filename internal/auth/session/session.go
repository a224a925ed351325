// Package session implements the cookie session store. The session is the
// only place credentials live: an encrypted, authenticated cookie holding
// the signed-in user's identity and OAuth token pair. There is no
// server-side session state.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

// CookieName is the session cookie name.
const CookieName = "__session"

// TTL is fixed from issuance and independent of the access-token expiry.
const TTL = time.Hour

// ErrNoSession means the cookie is absent, expired or unreadable. Callers
// treat all three the same: the user is not signed in.
var ErrNoSession = errors.New("session: not present or unreadable")

// User is the sole payload of the session cookie.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// ExpiresAt is the access-token expiry in epoch milliseconds. It moves
	// together with AccessToken, never on its own.
	ExpiresAt int64 `json:"expiresAt"`
}

// Store seals and unseals the session cookie. secretbox gives authenticated
// encryption, so a client can neither read nor forge the payload.
type Store struct {
	key    [32]byte
	secure bool
}

// NewStore derives the sealing key from secret. secure controls the cookie
// Secure flag (set in production, off for local http).
func NewStore(secret string, secure bool) *Store {
	return &Store{key: sha256.Sum256([]byte(secret)), secure: secure}
}

// Issue writes the session cookie for user.
func (s *Store) Issue(w http.ResponseWriter, user User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("session nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], payload, &nonce, &s.key)

	http.SetCookie(w, s.cookie(base64.RawURLEncoding.EncodeToString(sealed), int(TTL.Seconds())))
	return nil
}

// Get unseals the session cookie from r.
func (s *Store) Get(r *http.Request) (User, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return User{}, ErrNoSession
	}

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(raw) < 24 {
		return User{}, ErrNoSession
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	payload, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return User{}, ErrNoSession
	}

	var user User
	if err := json.Unmarshal(payload, &user); err != nil {
		return User{}, ErrNoSession
	}
	return user, nil
}

// Clear expires the session cookie immediately.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	}
}
