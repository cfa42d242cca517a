package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/hardlog/internal/auth"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/storage"
)

// Hint returns a short suggestion for errors the user can act on, or "".
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, auth.ErrNoUser):
		return "select a user with 'hardlog user use <email>' or --user"
	case stderrors.Is(err, storage.ErrUnauthorized):
		return "the store rejected your credentials; update them with 'hardlog keyring set'"
	case stderrors.Is(err, storage.ErrTransport):
		return "the store could not be reached; check --config and try again"
	}
	return ""
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	if hint := Hint(err); hint != "" {
		return fmt.Sprintf("Error: %v\n  hint: %s", err, hint)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
