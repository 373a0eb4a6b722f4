package shared

import "errors"

// UserSafeMessage returns an error message suitable for display on a form.
// Known sentinel errors keep their wording; everything else collapses to a
// generic message so internals never leak to the UI.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	}
	if msg := err.Error(); len(msg) <= 160 {
		return msg
	}
	return "The operation could not be completed"
}
