package ecomgen

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports an invalid or missing parameter. It is always fatal and
// is returned before any I/O happens.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Param, e.Reason)
}

// ValidationError reports a record that violates the data model. The record is
// skipped and processing continues.
type ValidationError struct {
	Kind   Kind
	Key    string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s %s: %s", e.Kind, e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s: %s: %s", e.Kind, e.Key, e.Field, e.Reason)
}

// IOError reports a filesystem failure.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error on %s: %v", e.Path, e.Err)
}

func (e *IOError) Cause() error  { return e.Err }
func (e *IOError) Unwrap() error { return e.Err }

// ConnectivityError reports a backend which could not be reached or which
// stopped responding. It aborts the load into that backend only.
type ConnectivityError struct {
	Backend string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend %s unreachable: %v", e.Backend, e.Err)
}

func (e *ConnectivityError) Cause() error  { return e.Err }
func (e *ConnectivityError) Unwrap() error { return e.Err }

// SchemaError reports a record the backend refused because of its shape. The
// record is skipped and counted.
type SchemaError struct {
	Backend string
	Kind    Kind
	Key     string
	Err     error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s rejected %s %s: %v", e.Backend, e.Kind, e.Key, e.Err)
}

func (e *SchemaError) Cause() error  { return e.Err }
func (e *SchemaError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is, or wraps, a ConnectivityError.
func IsConnectivity(err error) bool {
	var cerr *ConnectivityError
	return errors.As(err, &cerr)
}

// asFatal makes sure a fatal error coming out of a store names the store.
func asFatal(backend string, err error) error {
	var cerr *ConnectivityError
	var ioerr *IOError
	if errors.As(err, &cerr) || errors.As(err, &ioerr) {
		return err
	}
	return &ConnectivityError{Backend: backend, Err: err}
}
