package cli

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/api"
	"github.com/tOgg1/wirewave/internal/models"
)

func TestExitForCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{
			name: "unauthorized",
			err:  &api.APIError{Method: "GET", Path: "/messages", Status: http.StatusUnauthorized},
			code: ExitCodeAuth,
			msg:  api.UnauthorizedText,
		},
		{
			name: "server message",
			err:  &api.APIError{Method: "POST", Path: "/groups", Status: http.StatusBadRequest, Message: "Group name required"},
			code: ExitCodeFailure,
			msg:  "Group name required",
		},
		{
			name: "offline",
			err:  &api.TransportError{Method: "GET", Path: "/messages", Err: errors.New("connection refused")},
			code: ExitCodeOffline,
			msg:  "load: GET /messages: connection refused",
		},
		{
			name: "validation",
			err:  models.ValidateDirectMessage("", "hi"),
			code: ExitCodeUsage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := exitFor(tc.err, "load")
			var exitErr *ExitError
			require.ErrorAs(t, out, &exitErr)
			require.Equal(t, tc.code, exitErr.Code)
			if tc.msg != "" {
				require.Equal(t, tc.msg, exitErr.Error())
			}
		})
	}
}

func TestExitForKeepsExitError(t *testing.T) {
	orig := Exitf(ExitCodeUsage, "bad %s", "input")
	require.Same(t, orig, exitFor(orig, "ignored"))
	require.Nil(t, exitFor(nil, "ignored"))
}

func TestReportedMarksPrinted(t *testing.T) {
	err := reported(errors.New("boom"))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.True(t, exitErr.Printed)
	require.Nil(t, reported(nil))
}
