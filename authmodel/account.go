package authmodel

// RegisterRequest is the body sent to the registration endpoint.
// Registration does not sign the user in; the caller logs in afterwards.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest is the body sent to the logout endpoint.
// Behavior: The server blacklists the refresh token; the response is ignored
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// PasswordResetRequest asks the server to email a one-time password.
// Behavior: The server answers 200 whether or not the email is known
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm sets a new password using the emailed one-time password.
type PasswordResetConfirm struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// Detail is the generic message body used for both successes and failures.
// Example: {"detail": "Given token not valid for any token type", "code": "token_not_valid"}
type Detail struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}
