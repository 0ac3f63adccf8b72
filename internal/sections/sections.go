// Package sections decodes the section list of a themed page into a closed
// set of typed sections. Unknown kinds are rejected at decode time instead of
// being looked up in a registry at render time.
package sections

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindHero           Kind = "hero"
	KindProductGrid    Kind = "product_grid"
	KindProductDetails Kind = "product_details"
	KindCategoryList   Kind = "category_list"
	KindRichText       Kind = "rich_text"
	KindFooter         Kind = "footer"
)

var ErrUnknownKind = errors.New("unknown section kind")

// Section is implemented only by the types of this package.
type Section interface {
	Kind() Kind
	SectionID() string
	sealed()
}

type base struct {
	ID string `json:"id"`
}

func (b base) SectionID() string { return b.ID }
func (base) sealed()             {}

type Hero struct {
	base
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	CTALabel string `json:"cta_label,omitempty"`
	CTALink  string `json:"cta_link,omitempty"`
}

// ProductGrid shows a slice of the catalog. When ProductIDs is set the grid
// shows exactly those products in that order; otherwise the facets apply.
type ProductGrid struct {
	base
	Title       string  `json:"title,omitempty"`
	ProductIDs  []int64 `json:"product_ids,omitempty"`
	CategoryIDs []int64 `json:"category_ids,omitempty"`
	Sort        string  `json:"sort,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

type ProductDetails struct {
	base
	ProductID   int64 `json:"product_id"`
	ShowRelated bool  `json:"show_related,omitempty"`
}

type CategoryList struct {
	base
	Title       string  `json:"title,omitempty"`
	CategoryIDs []int64 `json:"category_ids,omitempty"`
}

type RichText struct {
	base
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Footer struct {
	base
	Copyright string `json:"copyright,omitempty"`
	Links     []Link `json:"links,omitempty"`
}

func (*Hero) Kind() Kind           { return KindHero }
func (*ProductGrid) Kind() Kind    { return KindProductGrid }
func (*ProductDetails) Kind() Kind { return KindProductDetails }
func (*CategoryList) Kind() Kind   { return KindCategoryList }
func (*RichText) Kind() Kind       { return KindRichText }
func (*Footer) Kind() Kind         { return KindFooter }

type envelope struct {
	ID       string          `json:"id"`
	Type     Kind            `json:"type"`
	Enabled  *bool           `json:"enabled"`
	Settings json.RawMessage `json:"settings"`
}

// Decode parses a JSON array of {id, type, enabled, settings} objects.
// Sections with enabled=false are dropped. Any unknown type fails the whole
// page.
func Decode(raw []byte) ([]Section, error) {
	var envelopes []envelope
	if err := json.Unmarshal(raw, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to decode sections: %w", err)
	}

	out := make([]Section, 0, len(envelopes))
	for i, env := range envelopes {
		if env.Enabled != nil && !*env.Enabled {
			continue
		}

		s, err := newSection(env.Type)
		if err != nil {
			return nil, fmt.Errorf("section %d (%q): %w", i, env.ID, err)
		}
		if len(env.Settings) > 0 && string(env.Settings) != "null" {
			if err := json.Unmarshal(env.Settings, s); err != nil {
				return nil, fmt.Errorf("section %d (%q): invalid %s settings: %w", i, env.ID, env.Type, err)
			}
		}
		setID(s, env.ID)
		out = append(out, s)
	}
	return out, nil
}

func newSection(kind Kind) (Section, error) {
	switch kind {
	case KindHero:
		return &Hero{}, nil
	case KindProductGrid:
		return &ProductGrid{}, nil
	case KindProductDetails:
		return &ProductDetails{}, nil
	case KindCategoryList:
		return &CategoryList{}, nil
	case KindRichText:
		return &RichText{}, nil
	case KindFooter:
		return &Footer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func setID(s Section, id string) {
	switch v := s.(type) {
	case *Hero:
		v.ID = id
	case *ProductGrid:
		v.ID = id
	case *ProductDetails:
		v.ID = id
	case *CategoryList:
		v.ID = id
	case *RichText:
		v.ID = id
	case *Footer:
		v.ID = id
	}
}
