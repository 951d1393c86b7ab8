package flags

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// longScale normalizes the 60-bit hash prefix into [0, 1). The value and
// the hashing below must match the server's bucketing exactly so that the
// same (key, distinctID) pair lands in the same bucket on client and server.
const longScale = float64(0xfffffffffffffff)

// SimpleFlagEnabled deterministically buckets distinctID for key and
// reports whether it falls under rolloutPercentage.
//
// The bucket is sha1(key + "." + distinctID), first 15 hex digits parsed as
// an unsigned integer, scaled to [0, 100). Enabled iff strictly less than
// the percentage.
func SimpleFlagEnabled(key, distinctID string, rolloutPercentage float64) bool {
	sum := sha1.Sum([]byte(key + "." + distinctID))
	hexed := hex.EncodeToString(sum[:])[:15]
	value, err := strconv.ParseUint(hexed, 16, 64)
	if err != nil {
		return false
	}
	return float64(value)/longScale*100 < rolloutPercentage
}
