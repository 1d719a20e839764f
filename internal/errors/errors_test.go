package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/balkashynov/fencer/internal/engine"
	"github.com/balkashynov/fencer/internal/storage"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "Error: boom", Format(stderrors.New("boom")))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "already active",
			err:  fmt.Errorf("%w: current session is running", engine.ErrSessionAlreadyActive),
			want: "a focus session is already running",
		},
		{
			name: "persistence",
			err: &storage.PersistenceError{
				Op: "save", Record: storage.KeyStats, Err: stderrors.New("disk full"),
			},
			want: "could not save your progress (disk full); it is kept for this run only",
		},
		{
			name: "other",
			err:  stderrors.New("something else"),
			want: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}

	assert.Contains(t, Describe(fmt.Errorf("%w: got 0", engine.ErrInvalidDuration)), "between 1 and 120")
}
