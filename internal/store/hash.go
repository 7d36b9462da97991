package store

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentHash fingerprints file content.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(src))
}

// SetHash fingerprints an ordered list of inputs, such as the query catalog
// hash and the settings that shape cached results.
func SetHash(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		d.WriteString(p)
		d.WriteString("\x00")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// placeholderList returns "?, ?, ..." with n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
