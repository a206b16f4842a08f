// Defines the typed failures returned by the storage layer.

package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure so the HTTP layer can decide how to
// report it.
//
// Kinds are ordered by severity; KindOf returns the most severe kind found in
// an error tree.
type Kind int

const (
	// KindNotFound is returned when the target artifact does not exist.
	KindNotFound Kind = iota + 1
	// KindInvalidIdentifier is returned in strict mode for rejected identifiers.
	KindInvalidIdentifier
	// KindPartialArtifact is returned when a page source was written but its
	// rendering was not.
	KindPartialArtifact
	// KindOther covers every other filesystem failure: permission denied, disk
	// full, missing parent directory, directory in the way.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidIdentifier:
		return "invalid_identifier"
	case KindPartialArtifact:
		return "partial_artifact"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrNotFound matches any *Error of kind KindNotFound.
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidIdentifier matches any *Error of kind KindInvalidIdentifier.
	ErrInvalidIdentifier = errors.New("invalid page identifier")
	// ErrPartialArtifact matches any *Error of kind KindPartialArtifact.
	ErrPartialArtifact = errors.New("page source written but rendering failed")
	// ErrIsDir is wrapped when a write or delete targets a directory.
	ErrIsDir = errors.New("target is a directory")
)

// Error is a storage failure on a single path.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidIdentifier:
		return e.Kind == KindInvalidIdentifier
	case ErrPartialArtifact:
		return e.Kind == KindPartialArtifact
	}
	return false
}

// KindOf returns the most severe Kind in err's tree.
//
// Returns 0 for a nil error and KindOther for errors that carry no Kind.
// Joined errors (errors.Join) are walked so that a delete which failed with
// NotFound on one artifact and permission denied on the other reports
// KindOther.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	switch e := err.(type) {
	case *Error:
		return e.Kind
	case interface{ Unwrap() []error }:
		var k Kind
		for _, child := range e.Unwrap() {
			k = max(k, KindOf(child))
		}
		if k == 0 {
			return KindOther
		}
		return k
	case interface{ Unwrap() error }:
		if inner := e.Unwrap(); inner != nil {
			return KindOf(inner)
		}
	}
	return KindOther
}
