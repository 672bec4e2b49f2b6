// Package identifier canonicalises 128-bit BLE attribute identifiers.
//
// Every comparison and registry lookup in blemap goes through Identifier,
// never through the raw strings found in extractor output.
package identifier

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// ReservedPrefix is the first group prefix of the Bluetooth base UUID range.
	ReservedPrefix = "0000"
	// ReservedSuffix is the fixed tail of the Bluetooth base UUID.
	ReservedSuffix = "-0000-1000-8000-00805F9B34FB"

	// None is emitted by extractors when no characteristic was resolved.
	None Identifier = "00000000-0000-1000-8000-00805F9B34FB"
)

// Identifier is an upper-case, hyphenated 8-4-4-4-12 identifier string.
type Identifier string

// Parse canonicalises s. Any form accepted by uuid.Parse is allowed
// (hyphenated, braced, urn:uuid:, or 32 bare hex digits).
func Parse(s string) (Identifier, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return Identifier(strings.ToUpper(u.String())), nil
}

// MustParse is Parse that panics; intended for constants and tests.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromShort expands a 16-bit short identifier ("2A05" or "0x2a05") into
// the full Bluetooth base form.
func FromShort(short string) (Identifier, error) {
	s := NormalizeShort(short)
	if len(s) != 4 {
		return "", fmt.Errorf("invalid short identifier %q", short)
	}
	return Parse(ReservedPrefix + s + ReservedSuffix)
}

// NormalizeShort trims, strips an optional 0x prefix and upper-cases.
func NormalizeShort(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strings.ToUpper(s)
}

// String returns the canonical form.
func (id Identifier) String() string {
	return string(id)
}

// HasReservedShape reports whether the identifier sits in the Bluetooth base
// range, i.e. 0000xxxx-0000-1000-8000-00805F9B34FB.
func (id Identifier) HasReservedShape() bool {
	s := string(id)
	return len(s) == 36 && s[:4] == ReservedPrefix && s[8:] == ReservedSuffix
}

// Short returns the 16-bit distinguishing segment (hex digits 5-8).
// It is meaningful only when HasReservedShape is true.
func (id Identifier) Short() string {
	s := string(id)
	if len(s) < 8 {
		return ""
	}
	return s[4:8]
}

// IsNone reports whether id is the "no characteristic" sentinel.
func (id Identifier) IsNone() bool {
	return id == None
}
