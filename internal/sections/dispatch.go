package sections

import (
	"fmt"
)

// Handler has one method per section kind. Adding a kind adds a method, so
// every consumer fails to compile until it handles the new kind.
type Handler interface {
	Hero(*Hero) error
	ProductGrid(*ProductGrid) error
	ProductDetails(*ProductDetails) error
	CategoryList(*CategoryList) error
	RichText(*RichText) error
	Footer(*Footer) error
}

// Dispatch calls the Handler method matching the concrete type of s.
func Dispatch(s Section, h Handler) error {
	switch v := s.(type) {
	case *Hero:
		return h.Hero(v)
	case *ProductGrid:
		return h.ProductGrid(v)
	case *ProductDetails:
		return h.ProductDetails(v)
	case *CategoryList:
		return h.CategoryList(v)
	case *RichText:
		return h.RichText(v)
	case *Footer:
		return h.Footer(v)
	}
	return fmt.Errorf("%w: %T", ErrUnknownKind, s)
}

// DispatchAll dispatches every section in order and stops at the first
// error.
func DispatchAll(list []Section, h Handler) error {
	for _, s := range list {
		if err := Dispatch(s, h); err != nil {
			return fmt.Errorf("section %q: %w", s.SectionID(), err)
		}
	}
	return nil
}
