package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Identifier errors.
var (
	// ErrMalformedIdentifier is returned when an identifier does not split
	// into exactly three dash-separated parts or the sequence part is not
	// a non-negative integer.
	ErrMalformedIdentifier = errors.New("malformed record identifier")
	// ErrEmptyIdentifier is returned when the identifier is empty.
	ErrEmptyIdentifier = errors.New("record identifier cannot be empty")
)

// Identifier is an immutable value object representing a CVE-style record
// identifier of the form <PREFIX>-<YEAR>-<SEQUENCE> (e.g. "CVE-2021-34527").
// It validates the format and exposes the components needed to derive
// deterministic storage paths.
type Identifier struct {
	prefix   string // Identifier prefix, typically "CVE"
	year     string // Four-digit year component, kept as a string
	sequence int    // Sequence number, non-negative
}

// ParseIdentifier creates an Identifier from a raw string.
// It returns ErrMalformedIdentifier if the string does not have exactly
// three dash-separated parts or the sequence is not a non-negative integer.
func ParseIdentifier(raw string) (Identifier, error) {
	if raw == "" {
		return Identifier{}, ErrEmptyIdentifier
	}

	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return Identifier{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, raw)
	}

	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return Identifier{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, raw)
	}

	return Identifier{
		prefix:   parts[0],
		year:     parts[1],
		sequence: seq,
	}, nil
}

// MustParseIdentifier creates an Identifier or panics if invalid.
// Use only for known-valid identifiers in tests or initialization.
func MustParseIdentifier(raw string) Identifier {
	id, err := ParseIdentifier(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Prefix returns the identifier prefix (e.g. "CVE").
func (id Identifier) Prefix() string { return id.prefix }

// Year returns the year component as it appeared in the input.
func (id Identifier) Year() string { return id.year }

// Sequence returns the numeric sequence component.
func (id Identifier) Sequence() int { return id.sequence }

// PaddedSequence returns the sequence rendered as six zero-padded digits.
// The padding is part of the on-disk naming contract: "943" and "000943"
// must resolve to the same file.
func (id Identifier) PaddedSequence() string {
	return fmt.Sprintf("%06d", id.sequence)
}

// String returns the canonical identifier with the padded sequence,
// e.g. "CVE-2021-034527".
func (id Identifier) String() string {
	return fmt.Sprintf("%s-%s-%s", id.prefix, id.year, id.PaddedSequence())
}
