// Package fingerprint computes content digests used for duplicate detection.
package fingerprint

import (
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
)

// Sum returns the lowercase hex SHA-256 digest of content.
func Sum(content []byte) string {
	digest := sha256.Sum256(content)
	return hex.EncodeToString(digest[:])
}
