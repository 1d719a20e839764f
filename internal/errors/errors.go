package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/balkashynov/fencer/internal/engine"
	"github.com/balkashynov/fencer/internal/logger"
	"github.com/balkashynov/fencer/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", Describe(err))
}

// Describe turns known errors into a message a user can act on
func Describe(err error) string {
	var perr *storage.PersistenceError
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, engine.ErrSessionAlreadyActive):
		return "a focus session is already running"
	case stderrors.Is(err, engine.ErrInvalidDuration):
		return fmt.Sprintf("duration must be between 1 and 120 minutes (%v)", err)
	case stderrors.Is(err, engine.ErrInvalidTransition):
		return err.Error()
	case stderrors.As(err, &perr):
		return fmt.Sprintf("could not save your progress (%v); it is kept for this run only", perr.Err)
	default:
		return err.Error()
	}
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
