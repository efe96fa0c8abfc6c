// Package errors holds the error taxonomy shared by every layer. Errors are
// built with cockroachdb/errors: the message is for logs, the hint is the
// Portuguese text shown to the user, and the mark decides the HTTP status.
package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// GenericMessage is shown when a failure carries no user-facing hint
const GenericMessage = "Não foi possível concluir a operação. Tente novamente."

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("resource not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage error")
	ErrDatabase          = errors.New("database error")

	statusCodeMap = []struct {
		err    error
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrStorage, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
	}
)

// Validation returns a validation error whose hint is the user message
func Validation(hint string) error {
	return NewError("validation failed").WithHint(hint).Mark(ErrValidation)
}

// NotFound returns a not-found error for the given resource
func NotFound(resource, hint string) error {
	return NewError(resource + " not found").WithHint(hint).Mark(ErrNotFound)
}

// PermissionDenied returns a forbidden error with the default hint
func PermissionDenied(msg string) error {
	return NewError(msg).WithHint("Você não tem permissão para esta ação.").Mark(ErrPermissionDenied)
}

// Database wraps a failed backend call. The hint is the generic message.
func Database(err error, msg string) error {
	return WithError(err).WithMessage(msg).WithHint(GenericMessage).Mark(ErrDatabase)
}

// Storage wraps a failed object-storage call
func Storage(err error, msg string) error {
	return WithError(err).WithMessage(msg).WithHint("Falha ao enviar ou recuperar o arquivo.").Mark(ErrStorage)
}

// UserMessage returns the first hint on the chain, or the generic message
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return GenericMessage
}

// HTTPStatus maps an error to its HTTP status code
func HTTPStatus(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// Is and As re-export the cockroachdb helpers so callers need one import
func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }

// Wrap annotates err with a message, keeping marks and hints
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf is Wrap with formatting
func Wrapf(err error, format string, args ...any) error { return errors.Wrapf(err, format, args...) }
