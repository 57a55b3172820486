package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(receipt_id|block_height|log_index)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(receiptID string, blockHeight int64, logIndex int) string {
	data := fmt.Sprintf("%s|%d|%d", receiptID, blockHeight, logIndex)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
