// internal/models/selection.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// SelectedOption freezes the option as the shopper saw it when choosing it.
type SelectedOption struct {
	VariantTypeID int64   `json:"variant_type_id"`
	OptionID      int64   `json:"variant_id"`
	OptionName    string  `json:"variant_name"`
	TypeTitle     string  `json:"variant_type_name"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"image_url,omitempty"`
}

// Selection maps a variant type id to the option chosen for it.
type Selection map[int64]SelectedOption

// Clone returns an independent copy; a nil selection clones to an empty one.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// TypeIDs returns the variant type ids in ascending order.
func (s Selection) TypeIDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SameOptions reports whether both selections choose the same option for the
// same set of variant types. Frozen prices and names are not compared.
func (s Selection) SameOptions(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for typeID, opt := range s {
		o, ok := other[typeID]
		if !ok || o.OptionID != opt.OptionID {
			return false
		}
	}
	return true
}

// ImageURL returns the first image attached to a selected option, scanning
// types in ascending id order.
func (s Selection) ImageURL() string {
	for _, id := range s.TypeIDs() {
		if url := s[id].ImageURL; url != "" {
			return url
		}
	}
	return ""
}

func (s Selection) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *Selection) Scan(value interface{}) error {
	if value == nil {
		*s = Selection{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported selection column type %T", value)
	}

	out := Selection{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode selection: %w", err)
	}
	*s = out
	return nil
}
