package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcoot/s3arena/internal/model"
	"github.com/mcoot/s3arena/internal/photo"
	"github.com/mcoot/s3arena/internal/services/account"
	"github.com/mcoot/s3arena/internal/services/auth"
)

// Common detail messages
const (
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgInvalidToken     = "Given token not valid for any token type"
	MsgNotFound         = "Not found."
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgThrottled        = "Request was throttled."
	MsgServerError      = "A server error occurred."
	MsgRequired         = "This field is required."
	MsgEmptyList        = "This list may not be empty."
	MsgInvalidImage     = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// Detail is the body for errors that are not tied to a field
type Detail struct {
	Detail string `json:"detail"`
}

// FieldErrors maps request fields to their validation messages
type FieldErrors map[string][]string

// httpError combines an HTTP status code with a response body
type httpError struct {
	status int
	body   any
}

// Error implements error interface
func (e *httpError) Error() string {
	switch b := e.body.(type) {
	case Detail:
		return b.Detail
	case FieldErrors:
		for field, msgs := range b {
			if len(msgs) > 0 {
				return field + ": " + msgs[0]
			}
		}
	}
	return http.StatusText(e.status)
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var invalidPlayer *model.InvalidPlayerError
	if errors.As(err, &invalidPlayer) {
		return fields(http.StatusBadRequest, "players", invalidPlayer.Error())
	}

	switch {
	// Account errors
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrProfileNotFound),
		errors.Is(err, model.ErrCompletionNotFound),
		errors.Is(err, model.ErrNotAssigned):
		return detail(http.StatusNotFound, MsgNotFound)
	case errors.Is(err, model.ErrUsernameExists):
		return fields(http.StatusBadRequest, "username", "A user with that username already exists.")
	case errors.Is(err, model.ErrInvalidRole):
		return fields(http.StatusBadRequest, "role", "Select a valid role.")
	case errors.Is(err, model.ErrInvalidSport):
		return fields(http.StatusBadRequest, "sport", "Select a valid sport.")
	case errors.Is(err, model.ErrPlayerNotFound):
		return fields(http.StatusBadRequest, "child_player_id", "No active player found with this ID.")
	case errors.Is(err, model.ErrChildLinked):
		return fields(http.StatusBadRequest, "child_player_id", "This player is already linked to a parent account.")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fields(http.StatusBadRequest, "password", fmt.Sprintf("Ensure this field has no more than %d bytes.", auth.MaxPasswordBytes))
	case errors.Is(err, account.ErrParentRegistration):
		return fields(http.StatusBadRequest, "role", "Parents must register with a child player ID.")
	case errors.Is(err, photo.ErrInvalidImage):
		return fields(http.StatusBadRequest, "photo", MsgInvalidImage)

	// Role and access errors
	case errors.Is(err, model.ErrNotParent):
		return detail(http.StatusForbidden, "Not a parent account.")
	case errors.Is(err, model.ErrNoLinkedChild):
		return detail(http.StatusNotFound, "No child linked to this parent account.")
	case errors.Is(err, model.ErrNotCoach):
		return detail(http.StatusForbidden, "Only coaches can perform this action.")
	case errors.Is(err, model.ErrNotPlayer):
		return detail(http.StatusForbidden, "Only players can start tasks.")
	case errors.Is(err, model.ErrForbidden):
		return detail(http.StatusForbidden, MsgPermissionDenied)

	// Task errors
	case errors.Is(err, model.ErrTaskNotFound):
		return detail(http.StatusNotFound, "Task not found.")
	case errors.Is(err, model.ErrNoPlayers):
		return fields(http.StatusBadRequest, "players", MsgEmptyList)

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return detail(http.StatusUnauthorized, "No active account found with the given credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		return detail(http.StatusUnauthorized, MsgInvalidToken)

	default:
		return detail(http.StatusInternalServerError, MsgServerError)
	}
}

func detail(status int, msg string) *httpError {
	return &httpError{status, Detail{Detail: msg}}
}

func fields(status int, field, msg string) *httpError {
	return &httpError{status, FieldErrors{field: {msg}}}
}

// NewInvalidRequestError creates a bad request error with a detail message
func NewInvalidRequestError(message string) error {
	return detail(http.StatusBadRequest, message)
}

// NewFieldError creates a bad request error for a single field
func NewFieldError(field, message string) error {
	return fields(http.StatusBadRequest, field, message)
}

// NewValidationError creates a bad request error from a field map
func NewValidationError(fe FieldErrors) error {
	return &httpError{http.StatusBadRequest, fe}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return detail(http.StatusUnauthorized, MsgNotAuthenticated)
}

// NewNotFoundError creates a generic not found error
func NewNotFoundError() error {
	return detail(http.StatusNotFound, MsgNotFound)
}

// NewThrottledError creates a too many requests error
func NewThrottledError() error {
	return detail(http.StatusTooManyRequests, MsgThrottled)
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return detail(http.StatusInternalServerError, MsgServerError)
}
