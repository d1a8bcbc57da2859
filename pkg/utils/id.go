package utils

import (
	"strings"

	"github.com/google/uuid"
)

// keyFragment returns a short unique fragment for generated keys.
func keyFragment() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}

// NewKey generates a stable identifier with the given prefix, e.g.
// NewKey("field_") -> "field_5f2a1c03b9e44".
func NewKey(prefix string) string {
	return prefix + keyFragment()
}
