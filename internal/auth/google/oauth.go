// Package google implements the OAuth2 login flow against Google: consent
// redirect, callback exchange, and session issuance.
package google

import (
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

// Scopes requested at consent: identity plus per-file Drive access. The
// drive.file scope only grants access to files this app creates.
var Scopes = []string{
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/drive.file",
}

// OAuthConfig builds the OAuth2 config for Google authentication. The
// credentials come in as explicit values from the application config; there
// is no ambient client state.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     googleOAuth.Endpoint,
	}
}
