package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/ground-catalog/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps a catalog error onto an HTTP status; errors without a code are 500s.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domain.CodeOf(err)
	if code == "" {
		return New(http.StatusInternalServerError, string(domain.CodeBackendFailure), err)
	}
	return New(Status(code), string(code), err)
}

func Status(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeAlreadyExists:
		return http.StatusConflict
	case domain.CodeInvalidArgument, domain.CodeInvalidParent, domain.CodeTypeMismatch:
		return http.StatusBadRequest
	case domain.CodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
