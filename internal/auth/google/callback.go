package google

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/auth/session"
	"golang.org/x/oauth2"
)

// userInfoURL is a package variable so tests can point it at a fake server.
var userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// HandleCallback processes the OAuth callback from Google: it verifies the
// state token, exchanges the authorization code, fetches the user identity
// and issues the session cookie.
func HandleCallback(cfg *oauth2.Config, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != GetStateToken() {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			log.Printf("⚠️ OAuth callback without code")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		token, err := cfg.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		client := cfg.Client(r.Context(), token)
		resp, err := client.Get(userInfoURL)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get user info: %v", err), http.StatusInternalServerError)
			return
		}
		defer resp.Body.Close()

		var userInfo struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
			http.Error(w, fmt.Sprintf("Failed to decode user info: %v", err), http.StatusInternalServerError)
			return
		}

		user := session.User{
			Name:         userInfo.Name,
			Email:        userInfo.Email,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.Expiry.UnixMilli(),
		}
		if err := sessions.Issue(w, user); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create session: %v", err), http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Signed in: %s", userInfo.Email)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// HandleLogout clears the session cookie and returns to the login page.
func HandleLogout(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w)
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
