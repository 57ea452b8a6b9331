package completion

import (
	"errors"
	"net/http"
)

// NotFoundMessage is the inline error returned for an unregistered model.
func NotFoundMessage(id string) string { return "Could not find model " + id + "." }

// badRequestError marks client mistakes (blank prompt) for 400 mapping.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string   { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }

// ErrBadRequest constructs a bad-request error.
func ErrBadRequest(msg string) error { return badRequestError{msg: msg} }

// IsBadRequest reports whether err indicates a malformed request.
func IsBadRequest(err error) bool {
	var be badRequestError
	return errors.As(err, &be)
}
