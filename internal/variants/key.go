// Package variants resolves a shopper's variant selection into a stock key,
// an available quantity and a price. Every function is pure and total:
// "cannot buy" is reported as data, never as an error.
package variants

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CombinationKey is the canonical stock key of a complete mandatory selection.
// Format: the selected option ids of the mandatory variant types, sorted
// ascending, written as a JSON integer array without whitespace ("[3,7]").
// A product without mandatory types has the key "[]".
//
// The zero value is the incomplete sentinel: at least one mandatory type has
// no valid choice. It never matches a stock row.
type CombinationKey struct {
	encoded string
}

// Incomplete is returned when a mandatory variant type has no valid choice.
var Incomplete = CombinationKey{}

// NewCombinationKey encodes ids in canonical order. The input slice is not
// modified.
func NewCombinationKey(ids []int64) CombinationKey {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	b.WriteByte('[')
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte(']')
	return CombinationKey{encoded: b.String()}
}

// ParseCombinationKey reads a key in any JSON array spelling ("[7, 3]") and
// returns its canonical form.
func ParseCombinationKey(s string) (CombinationKey, error) {
	var ids []int64
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &ids); err != nil {
		return Incomplete, fmt.Errorf("invalid combination key %q: %w", s, err)
	}
	return NewCombinationKey(ids), nil
}

// IsComplete reports whether the key can address a stock row.
func (k CombinationKey) IsComplete() bool {
	return k.encoded != ""
}

// String returns the canonical encoding, or "" for the incomplete sentinel.
func (k CombinationKey) String() string {
	return k.encoded
}

// IDs decodes the option ids of the key in ascending order.
func (k CombinationKey) IDs() []int64 {
	if !k.IsComplete() {
		return nil
	}
	var ids []int64
	_ = json.Unmarshal([]byte(k.encoded), &ids)
	return ids
}

func (k CombinationKey) MarshalText() ([]byte, error) {
	return []byte(k.encoded), nil
}

func (k *CombinationKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Incomplete
		return nil
	}
	parsed, err := ParseCombinationKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
