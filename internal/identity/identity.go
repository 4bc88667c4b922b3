// Package identity produces deterministic, collision-resistant document IDs
// from file content and detection time.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"
)

// hashPrefixLen is the number of content-hash hex characters embedded in an ID.
const hashPrefixLen = 12

var idPattern = regexp.MustCompile(`^DOC_(\d{8})_(\d{6})_([0-9a-f]{12})$`)

// HashFile computes the SHA-256 content hash of a file as lowercase hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-256 hash of in-memory content as lowercase hex.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewDocumentID builds a composite document ID of the form
// DOC_<YYYYMMDD>_<HHMMSS>_<hash12>. It is a pure function of the content hash
// and the detection time: identical content detected in the same wall-clock
// second yields the same ID, distinct content always differs in the hash part.
func NewDocumentID(contentHash string, detectedAt time.Time) string {
	prefix := contentHash
	if len(prefix) > hashPrefixLen {
		prefix = prefix[:hashPrefixLen]
	}
	return fmt.Sprintf("DOC_%s_%s", detectedAt.UTC().Format("20060102_150405"), prefix)
}

// Valid reports whether a string is a well-formed document ID.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}
