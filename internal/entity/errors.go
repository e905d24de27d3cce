package entity

import (
	"errors"
	"fmt"
)

// ErrorKind tags an entity-scoped failure.
type ErrorKind string

const (
	KindFetch           ErrorKind = "fetch"
	KindExtraction      ErrorKind = "extraction"
	KindMissingIdentity ErrorKind = "missing_identity"
	KindPersistence     ErrorKind = "persistence"
	KindNotification    ErrorKind = "notification"
)

// ErrMissingIdentity is returned when a record lacks its identity field.
var ErrMissingIdentity = errors.New("identity field missing")

// EntityError is a failure confined to one tracked page. It never aborts a pass.
type EntityError struct {
	Kind     ErrorKind
	URL      string
	Identity string
	Err      error
}

func (e *EntityError) Error() string {
	if e.Identity != "" {
		return fmt.Sprintf("%s error for %s (%s): %v", e.Kind, e.URL, e.Identity, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first EntityError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ee *EntityError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
