package storage

import "fmt"

// PersistenceError reports a failed read or write of one record. It is
// never fatal: the in-memory state stays authoritative.
type PersistenceError struct {
	Op     string // "load", "save" or "clear"
	Record string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Record, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
