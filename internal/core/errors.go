package core

// Error codes reported to the originating connection. They are the only
// failure detail that ever leaves the process.
const (
	ErrCodeValidation   = "validation_error"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodePersistence  = "persistence_failure"
	ErrCodeNotInRoom    = "not_in_room"
	ErrCodeBadRequest   = "bad_request"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
