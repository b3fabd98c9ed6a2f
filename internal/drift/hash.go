package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/false-systems/nopea/internal/deploy"
)

// Hash returns the hex-lowercase SHA-256 of manifest's normalized,
// compact JSON encoding. Two manifests that differ only by the fields
// Normalize strips hash identically.
func Hash(manifest deploy.Manifest) (string, error) {
	normalized := Normalize(manifest)
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
