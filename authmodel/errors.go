package authmodel

// Error body keys with a special meaning. Every other key of an error body is
// a field name mapped to one message or a list of messages.
const (
	DetailKey         = "detail"
	CodeKey           = "code"
	NonFieldErrorsKey = "non_field_errors"
)

// Codes returned in Detail.Code by the reference backend.
const (
	CodeTokenNotValid = "token_not_valid"
	CodeUserInactive  = "user_inactive"
)
