package sections

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homepage = `[
	{"id": "hero-1", "type": "hero", "settings": {"title": "Summer sale", "cta_link": "/products"}},
	{"id": "grid-1", "type": "product_grid", "settings": {"category_ids": [3], "sort": "price-asc", "limit": 8}},
	{"id": "hidden", "type": "hero", "enabled": false, "settings": {"title": "old"}},
	{"id": "pd", "type": "product_details", "settings": {"product_id": 42, "show_related": true}},
	{"id": "cats", "type": "category_list"},
	{"id": "about", "type": "rich_text", "settings": {"body": "<p>hi</p>"}},
	{"id": "foot", "type": "footer", "settings": {"links": [{"label": "Terms", "url": "/terms"}]}}
]`

type recorder struct {
	visited []Kind
	fail    Kind
}

func (r *recorder) visit(k Kind) error {
	r.visited = append(r.visited, k)
	if k == r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Hero(*Hero) error                     { return r.visit(KindHero) }
func (r *recorder) ProductGrid(*ProductGrid) error       { return r.visit(KindProductGrid) }
func (r *recorder) ProductDetails(*ProductDetails) error { return r.visit(KindProductDetails) }
func (r *recorder) CategoryList(*CategoryList) error     { return r.visit(KindCategoryList) }
func (r *recorder) RichText(*RichText) error             { return r.visit(KindRichText) }
func (r *recorder) Footer(*Footer) error                 { return r.visit(KindFooter) }

func TestDecode(t *testing.T) {
	list, err := Decode([]byte(homepage))
	require.NoError(t, err)
	require.Len(t, list, 6)

	hero, ok := list[0].(*Hero)
	require.True(t, ok)
	assert.Equal(t, "hero-1", hero.SectionID())
	assert.Equal(t, "Summer sale", hero.Title)

	grid, ok := list[1].(*ProductGrid)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, grid.CategoryIDs)
	assert.Equal(t, 8, grid.Limit)

	details := list[2].(*ProductDetails)
	assert.Equal(t, int64(42), details.ProductID)
	assert.True(t, details.ShowRelated)

	assert.Equal(t, "cats", list[3].SectionID())
	assert.Len(t, list[5].(*Footer).Links, 1)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`[{"id": "x", "type": "carousel"}]`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`[{"id": "x", "type": "hero", "settings": {"title": 5}}]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{}`))
	assert.Error(t, err)
}

func TestDispatchAll(t *testing.T) {
	list, err := Decode([]byte(homepage))
	require.NoError(t, err)

	r := &recorder{}
	require.NoError(t, DispatchAll(list, r))
	assert.Equal(t, []Kind{
		KindHero, KindProductGrid, KindProductDetails, KindCategoryList, KindRichText, KindFooter,
	}, r.visited)

	r = &recorder{fail: KindProductDetails}
	err = DispatchAll(list, r)
	assert.EqualError(t, err, `section "pd": boom`)
	assert.Len(t, r.visited, 3)
}
