package usecase

import (
	"github.com/user/auction-watch/internal/entity"
	"github.com/user/auction-watch/pkg/utils"
)

// Fingerprint returns the SHA-256 digest of the record's canonical
// serialization as 64 hex characters.
func Fingerprint(rec entity.NormalizedRecord) string {
	return utils.SHA256Hex(rec.Canonical())
}
