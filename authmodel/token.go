package authmodel

// TokenRequest is the body sent to the credential issuance endpoint.
type TokenRequest struct {
	// Username identifies the account signing in.
	// Required: Yes
	// Example: "alice"
	Username string `json:"username"`

	// Password is the account password in clear text.
	// Required: Yes
	// Security: Never log or persist this value
	Password string `json:"password"`
}

// TokenPair is the issuance endpoint response.
type TokenPair struct {
	// Access is the short-lived bearer credential.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <access>"
	// Lifespan: Short-lived (60 minutes on the reference backend)
	Access string `json:"access"`

	// Refresh is the longer-lived credential used only to mint a new access token.
	// Lifespan: 1 day on the reference backend, rotated on each use when rotation is enabled
	Refresh string `json:"refresh"`

	// User is the identity of the account, when the server supplies one.
	// Only present: On servers that extend the default issuance response
	User *UserInfo `json:"user,omitempty"`
}

// UserInfo is the identity record a server may attach to a token pair.
type UserInfo struct {
	ID       any    `json:"id,omitempty"` // Numeric on the reference backend, string elsewhere
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// RefreshRequest is the body sent to the credential refresh endpoint.
type RefreshRequest struct {
	// Refresh is the refresh token issued with the current session.
	// Required: Yes
	Refresh string `json:"refresh"`
}

// RefreshResponse is the refresh endpoint response.
type RefreshResponse struct {
	// Access is the newly minted access token.
	Access string `json:"access"`

	// Refresh is a rotated refresh token.
	// Only present: When the server rotates refresh tokens on use
	// Behavior: The previous refresh token is blacklisted by the server
	Refresh string `json:"refresh,omitempty"`
}
