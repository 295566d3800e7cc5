package driver

import (
	"crypto/sha256"
	"strconv"

	"rvcheck/internal/version"
)

// Digest identifies a cached result.
type Digest [32]byte

// cacheKey: H(tool version || 0 || limit || 0 || content). A new build never
// reads results written by another one, and a bag truncated under one
// diagnostic limit is never served to a run with another.
func cacheKey(content []byte, limit int) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(version.CacheKey()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(limitOf(limit))))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(content)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
