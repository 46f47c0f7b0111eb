package errors

import (
	stderrors "errors"
	"net/http"
)

// MapToHTTPStatus translates a domain sentinel into the status code the REST
// edge should answer with. Anything unrecognized is treated as a persistence
// or internal failure.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrInvalidCredentials),
		stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrUserNotFound),
		stderrors.Is(err, ErrGroupNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUsernameTaken),
		stderrors.Is(err, ErrGroupNameTaken):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
