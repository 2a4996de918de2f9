package commands

import (
	"errors"
	"fmt"
	"io"

	"youdo/internal/exitcode"
	"youdo/internal/service"
	"youdo/internal/session"
	"youdo/internal/taskstore"
)

// report prints err as an "error: ..." line and returns its exit code.
func report(errOut io.Writer, err error) int {
	var vErr *service.ValidationError

	switch {
	case errors.Is(err, taskstore.ErrSessionExpired):
		fmt.Fprintln(errOut, "error: session expired (run: youdo login)")
		return exitcode.AuthError
	case errors.Is(err, taskstore.ErrNotAuthenticated), errors.Is(err, session.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: youdo login)")
		return exitcode.AuthError
	case errors.As(err, &vErr):
		fmt.Fprintf(errOut, "error: %s\n", vErr)
		return exitcode.UserError
	case errors.Is(err, taskstore.ErrTaskNotFound), errors.Is(err, taskstore.ErrNoPendingDelete):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsRemote(err):
		// The remote's own wording, without local wrapping.
		fmt.Fprintf(errOut, "error: %s\n", remoteMessage(err))
		if service.IsUnauthorized(err) {
			return exitcode.AuthError
		}
		return exitcode.BackendError
	default:
		// Local failures such as an unwritable state file.
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
}

// remoteMessage returns the innermost remote error's text.
func remoteMessage(err error) string {
	var appErr *service.ApplicationError
	var netErr *service.NetworkError
	var decErr *service.DecodeError
	switch {
	case errors.As(err, &appErr):
		return appErr.Error()
	case errors.As(err, &netErr):
		return netErr.Error()
	case errors.As(err, &decErr):
		return decErr.Error()
	}
	return err.Error()
}
