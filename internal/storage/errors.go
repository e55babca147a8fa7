package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// ConnectionError reports a failure to reach a backend. The migration
// console treats it as retryable.
type ConnectionError struct {
	Backend Backend
	Target  string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s %q: %v", e.Backend, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StorageError wraps a failed statement with what was being done and
// to which table and record.
type StorageError struct {
	Op    string
	Table string
	Id    uuid.UUID
	Err   error
}

func (e *StorageError) Error() string {
	if e.Id == uuid.Nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s %s record %s: %v", e.Op, e.Table, e.Id, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, table string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Table: table, Id: id, Err: err}
}
