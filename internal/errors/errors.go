package errors

import (
	"errors"
	"fmt"
)

// Errors reported by the command line front end
var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrMissingInput = errors.New("missing input")
	ErrInvalidJSON  = errors.New("invalid JSON")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
