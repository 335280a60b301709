package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	return fmt.Sprintf("%s:%s", prefix, HashJSON(parts...))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashJSON hashes the JSON encoding of parts. Map keys are encoded in sorted
// order, so equal values always hash equally.
func HashJSON(parts ...any) string {
	data, _ := json.Marshal(parts)
	return Hash(data)
}

// FileFingerprint identifies a version of a file without reading it.
type FileFingerprint struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Missing bool      `json:"missing,omitempty"`
}

// Fingerprint stats path. Files that cannot be stat'ed are marked Missing so
// a file appearing later changes the fingerprint.
func Fingerprint(path string) FileFingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{Path: path, Missing: true}
	}
	return FileFingerprint{Path: path, Size: info.Size(), ModTime: info.ModTime().UTC()}
}
