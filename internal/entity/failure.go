package entity

import "time"

// Failure mirrors a row of the failures table: the latest error seen for a URL.
type Failure struct {
	URL           string
	Identity      string
	Kind          ErrorKind
	Reason        string
	Attempts      int
	FirstFailedAt time.Time
	LastAttemptAt time.Time
}
