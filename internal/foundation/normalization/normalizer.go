// Package normalization maps user-supplied strings onto enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Normalizer converts case- and whitespace-insensitive strings into values of T.
type Normalizer[T comparable] struct {
	name        string
	validValues map[string]T
	validKeys   []string // canonical keys, sorted for error messages
}

// NewNormalizer creates a normalizer named after the field it parses. Aliases map
// alternative spellings onto the same values but are not listed as valid keys.
func NewNormalizer[T comparable](name string, values map[string]T, aliases map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{
		name:        name,
		validValues: make(map[string]T, len(values)+len(aliases)),
		validKeys:   make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := normalize(k)
		n.validValues[key] = v
		n.validKeys = append(n.validKeys, key)
	}
	for k, v := range aliases {
		n.validValues[normalize(k)] = v
	}
	sort.Strings(n.validKeys)
	return n
}

// Normalize returns the value for raw and whether it was recognized.
func (n *Normalizer[T]) Normalize(raw string) (T, bool) {
	v, ok := n.validValues[normalize(raw)]
	return v, ok
}

// NormalizeWithError is Normalize with a validation error for unknown input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.Normalize(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError(fmt.Sprintf("invalid %s %q, valid options: %s", n.name, raw, strings.Join(n.validKeys, ", "))).
		WithContext(n.name, raw).
		Build()
}

// ValidKeys returns the canonical keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
