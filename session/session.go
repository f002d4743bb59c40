package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Identity is the minimal user descriptor kept alongside the tokens.
// It is stored as JSON under store.KeyUser.
type Identity struct {
	Username string `json:"username"`        // Username used to sign in
	ID       string `json:"id,omitempty"`    // Server side user id, when the server supplies one
	Email    string `json:"email,omitempty"` // Email address, when the server supplies one
}

// Session is the authentication state of the current process.
// The three parts are set and cleared together.
type Session struct {
	AccessToken  string    // Short-lived bearer credential
	RefreshToken string    // Longer-lived credential used only to mint a new access token
	Identity     *Identity // Who the tokens belong to
}

// Valid reports whether all three parts of the session are present
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.Identity != nil && s.Identity.Username != ""
}

// Username returns the identity username or an empty string
func (s Session) Username() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// Token returns the session credentials as an oauth2 bearer token.
// Expiry is taken from the access token exp claim when the token is a JWT and
// is left zero for opaque tokens.
func (s Session) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if exp, ok := AccessTokenExpiry(s.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok
}

// AccessTokenExpiry reads the exp claim of a JWT access token without verifying
// its signature. The server stays the authority on validity; the expiry is only
// informational on the client side.
func AccessTokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
