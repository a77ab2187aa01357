package chat

import "errors"

// Error codes for validation errors.
const (
	ErrCodeEmptyUser     = "empty_user"
	ErrCodeEmptyRoomName = "empty_room_name"
)

var (
	// ErrAlreadyLoggedIn is returned by Login when the session is not anonymous.
	ErrAlreadyLoggedIn = errors.New("already logged in")
	// ErrNotAuthenticated is returned by room operations before login completes.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError rejects a call before any state mutation or transport traffic.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}
