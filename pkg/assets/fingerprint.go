package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint returns the hex SHA-256 digest of the raw asset bytes. Identical
// uploads always map to the same fingerprint regardless of filename or origin.
func Fingerprint(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("asset payload is empty")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
