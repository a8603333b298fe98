package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateNodeID derives a stable node id from the analysed file and the
// entity name, so the same entity keeps its id across runs.
func GenerateNodeID(filePath, name string) string {
	hash := sha256.Sum256([]byte(filePath + ":" + name))
	return hex.EncodeToString(hash[:])
}
