// Package prefixed_uuid generates and parses identifiers of the form
// "prefix-uuid", such as session and report ids.
package prefixed_uuid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrefixedUUID pairs a short type prefix with a random UUID. The prefix
// must not contain a dash, since the first dash separates the two
// halves in the string form.
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New generates a random identifier under the given prefix.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: uuid.New()}
}

// FromUUID wraps an existing UUID under the given prefix.
func FromUUID(prefix string, id uuid.UUID) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: id}
}

// FromString parses "prefix-uuid", splitting at the first dash.
func FromString(s string) (PrefixedUUID, error) {
	prefix, rest, found := strings.Cut(s, "-")
	if !found {
		return PrefixedUUID{}, fmt.Errorf("invalid prefixed UUID format: %s", s)
	}

	id, err := uuid.Parse(rest)
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("invalid UUID: %w", err)
	}
	return PrefixedUUID{Prefix: prefix, UUID: id}, nil
}

// String returns the "prefix-uuid" form.
func (p PrefixedUUID) String() string {
	return p.Prefix + "-" + p.UUID.String()
}

// IsZero reports whether p is the uninitialized zero value.
func (p PrefixedUUID) IsZero() bool {
	return p.Prefix == "" && p.UUID == uuid.Nil
}

// MarshalJSON encodes the identifier as its string form.
func (p PrefixedUUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the identifier from its string form.
func (p *PrefixedUUID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("prefixed UUID must be a JSON string: %w", err)
	}

	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
