package usecase

import (
	"fmt"
	"strings"

	"github.com/user/auction-watch/internal/entity"
)

func newRecordMessage(identity, url string, rec entity.NormalizedRecord) string {
	return fmt.Sprintf("New auction %s\n%s\n\n%s", identity, url, rec.Render())
}

func changedRecordMessage(identity, url string, changes entity.ChangeSet) string {
	return fmt.Sprintf("Changes on auction %s\n%s\n\n%s", identity, url, changes.Render())
}

func failureMessage(out entity.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Failed to process %s", out.URL)
	if out.Identity != "" {
		fmt.Fprintf(&sb, " (auction %s)", out.Identity)
	}
	if kind := entity.KindOf(out.Err); kind != "" {
		fmt.Fprintf(&sb, "\nkind: %s", kind)
	}
	if out.Err != nil {
		fmt.Fprintf(&sb, "\ncause: %v", errorCause(out.Err))
	}
	return sb.String()
}

// errorCause strips the EntityError wrapper, whose context is already in the
// message header.
func errorCause(err error) error {
	if ee, ok := err.(*entity.EntityError); ok && ee.Err != nil {
		return ee.Err
	}
	return err
}
