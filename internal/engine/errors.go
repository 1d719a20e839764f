package engine

import (
	"errors"
	"fmt"

	"github.com/balkashynov/fencer/internal/models"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrSessionAlreadyActive = errors.New("session already active")
	ErrClosed               = errors.New("engine closed")
)

// ErrInvalidDuration matches ErrInvalidArgument with errors.Is
var ErrInvalidDuration = fmt.Errorf("%w: duration must be between %d and %d minutes",
	ErrInvalidArgument, models.MinDurationMinutes, models.MaxDurationMinutes)
