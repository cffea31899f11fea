// Copyright 2024 The Confluo Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can
// be found in the LICENSE file.

package confluo

import (
	"github.com/cockroachdb/errors"
)

// ManagementError reports a failed registration operation: an
// unknown field name, an unsupported type for indexing, a
// duplicate-index request, a remove-without-index request, or a
// malformed filter expression. The field or expression text that
// triggered the error is carried verbatim for diagnosability.
type ManagementError struct {
	Err error
}

func (e *ManagementError) Error() string { return e.Err.Error() }
func (e *ManagementError) Unwrap() error { return e.Err }

func newManagementError(format string, args ...any) *ManagementError {
	return &ManagementError{Err: errors.Newf(format, args...)}
}

// IOError wraps a backing storage failure surfaced by a storage.Mode.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return e.Err.Error() }
func (e *IOError) Unwrap() error { return e.Err }

func newIOError(err error) *IOError {
	return &IOError{Err: errors.Wrap(err, "confluo: storage")}
}

// InvariantError reports a contract violation in the engine itself
// rather than a caller mistake — e.g. a non-monotonic tail advance,
// which can only happen if two reservations overlapped — and is
// always fatal. Unlike ManagementError and IOError it is raised via
// panic, not returned.
type InvariantError struct {
	Err error
}

func (e *InvariantError) Error() string { return e.Err.Error() }
func (e *InvariantError) Unwrap() error { return e.Err }

func invariantf(format string, args ...any) {
	panic(&InvariantError{Err: errors.Newf(format, args...)})
}
