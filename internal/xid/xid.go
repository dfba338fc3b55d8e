// Package xid generates short identifiers for requests and exported files.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

const maxExternalLength = 64

// New returns prefix-<unix millis, base36>-<16 hex chars>. The random part
// falls back to the nanosecond clock if crypto/rand fails.
func New(prefix string) string {
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + stamp + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return prefix + "-" + stamp + "-" + hex.EncodeToString(buf)
}

// Accept reports whether an identifier supplied by a client (for example an
// X-Request-ID header) is safe to echo back and log.
func Accept(id string) bool {
	if id == "" || len(id) > maxExternalLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
