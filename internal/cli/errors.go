package cli

import (
	"errors"
	"fmt"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/models"
)

// Exit codes.
const (
	ExitCodeFailure = 1
	ExitCodeUsage   = 2
	ExitCodeAuth    = 3
	ExitCodeOffline = 4
)

// ExitError carries a process exit code. Printed is set when the message
// has already been shown to the user.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exitf builds an ExitError from a format string.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// exitFor maps an API failure to an exit code and user-facing text.
func exitFor(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	code := ExitCodeFailure
	var validation *models.ValidationErrors
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		code = ExitCodeAuth
	case api.IsTransport(err):
		code = ExitCodeOffline
	case errors.As(err, &validation):
		code = ExitCodeUsage
	}
	msg := api.UserMessage(err, "")
	if msg == "" {
		msg = fmt.Sprintf("%s: %v", fallback, err)
	}
	return &ExitError{Code: code, Err: errors.New(msg)}
}

// reported marks err as already shown by the notification sink.
func reported(err error) error {
	if err == nil {
		return nil
	}
	out := exitFor(err, "")
	var exitErr *ExitError
	if errors.As(out, &exitErr) {
		exitErr.Printed = true
	}
	return out
}
