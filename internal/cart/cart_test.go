package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/variants"
)

type CartTestSuite struct {
	suite.Suite
	now     time.Time
	cart    *Cart
	shirt   *models.Product
	sticker *models.Product
}

func (suite *CartTestSuite) SetupTest() {
	suite.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.cart = New(uuid.New(), Config{
		StockIsMaintained: true,
		Now:               func() time.Time { return suite.now },
	})

	red := "https://cdn.example.com/red.png"
	suite.shirt = &models.Product{
		ID:                    1,
		Name:                  "Shirt",
		ImageURL:              "https://cdn.example.com/shirt.png",
		Price:                 100,
		StockManagedByVariant: true,
		VariantTypes: []models.VariantType{
			{ID: 10, Title: "Size", IsMandatory: true, Options: []models.VariantOption{
				{ID: 1, Name: "S"},
				{ID: 2, Name: "M", Price: 5},
			}},
			{ID: 20, Title: "Color", IsMandatory: true, Options: []models.VariantOption{
				{ID: 3, Name: "Red", Price: 2, ImageURL: &red},
				{ID: 4, Name: "Blue"},
			}},
			{ID: 30, Title: "Gift box", Options: []models.VariantOption{
				{ID: 5, Name: "Yes", Price: 1.5},
			}},
		},
		StockCombinations: []models.StockCombination{
			{CombinationKey: "[1,3]", Quantity: 3},
			{CombinationKey: "[1,4]", Quantity: 10},
			{CombinationKey: "[2,3]", Quantity: 1},
		},
	}
	suite.sticker = &models.Product{ID: 2, Name: "Sticker", Price: 0.1, Quantity: 4}
}

func (suite *CartTestSuite) selection(picks ...[2]int64) models.Selection {
	sel := models.Selection{}
	for _, pk := range picks {
		sel = variants.Select(suite.shirt, sel, pk[0], pk[1])
	}
	return sel
}

func (suite *CartTestSuite) TestAddLineFreezesPrice() {
	line, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 2}, [2]int64{20, 3}), 1)
	suite.Require().NoError(err)

	suite.Equal(107.0, line.UnitPrice)
	suite.Equal("[2,3]", line.CombinationKey)
	suite.Equal("Shirt", line.ProductName)
	suite.Equal("https://cdn.example.com/red.png", line.ImageURL)
	suite.Equal(suite.cart.SessionID(), line.SessionID)

	suite.shirt.Price = 500
	suite.Equal(107.0, suite.cart.Lines()[0].UnitPrice, "catalog changes do not reprice lines")
}

func (suite *CartTestSuite) TestAddLineRejectsIncompleteAndUnsatisfiable() {
	_, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}), 1)
	suite.ErrorIs(err, ErrIncompleteSelection)

	_, err = suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 3}), 4)
	suite.ErrorIs(err, ErrNotSatisfiable)

	_, err = suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 3}), 0)
	suite.ErrorIs(err, ErrInvalidQuantity)

	suite.Empty(suite.cart.Lines())
}

func (suite *CartTestSuite) TestAddLineCountsStockAlreadyInCart() {
	base := suite.selection([2]int64{10, 1}, [2]int64{20, 3})
	_, err := suite.cart.AddLine(suite.shirt, base, 2)
	suite.Require().NoError(err)

	withBox := variants.Select(suite.shirt, base, 30, 5)
	_, err = suite.cart.AddLine(suite.shirt, withBox, 2)
	suite.ErrorIs(err, ErrNotSatisfiable, "both lines draw on the same combination")

	line, err := suite.cart.AddLine(suite.shirt, withBox, 1)
	suite.Require().NoError(err)
	suite.Equal(102.0+1.5, line.UnitPrice)
	suite.Len(suite.cart.Lines(), 2)
}

func (suite *CartTestSuite) TestAddLineReplaceLeavesStockHeldByOtherLines() {
	base := suite.selection([2]int64{10, 1}, [2]int64{20, 3})
	withBox := variants.Select(suite.shirt, base, 30, 5)

	_, err := suite.cart.AddLine(suite.shirt, withBox, 2)
	suite.Require().NoError(err)
	plain, err := suite.cart.AddLine(suite.shirt, base, 1)
	suite.Require().NoError(err)

	replaced, err := suite.cart.AddLine(suite.shirt, base, 3)
	suite.Require().NoError(err)
	suite.Equal(plain.ID, replaced.ID)
	suite.Equal(1, replaced.Quantity, "the boxed line already holds two of the three units")
	suite.Equal(3, suite.cart.TotalItems())

	_, err = suite.cart.IncrementQty(plain.ID, suite.shirt)
	suite.ErrorIs(err, ErrNotSatisfiable)
	got, ok := suite.cart.Line(plain.ID)
	suite.Require().True(ok)
	suite.Equal(1, got.Quantity, "a refused increment leaves the line alone")
}

func (suite *CartTestSuite) TestAddLineSameSelectionReplacesQuantity() {
	sel := suite.selection([2]int64{10, 1}, [2]int64{20, 4})
	first, err := suite.cart.AddLine(suite.shirt, sel, 2)
	suite.Require().NoError(err)

	second, err := suite.cart.AddLine(suite.shirt, sel, 50)
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)
	suite.Equal(10, second.Quantity)
	suite.Len(suite.cart.Lines(), 1)
}

func (suite *CartTestSuite) TestSteppersClampToCombinationStock() {
	line, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 3}), 2)
	suite.Require().NoError(err)

	for i := 0; i < 5; i++ {
		line, err = suite.cart.IncrementQty(line.ID, suite.shirt)
		suite.Require().NoError(err)
	}
	suite.Equal(3, line.Quantity)

	for i := 0; i < 5; i++ {
		line, err = suite.cart.DecrementQty(line.ID)
		suite.Require().NoError(err)
	}
	suite.Equal(1, line.Quantity)
}

func (suite *CartTestSuite) TestFlatStockSharedAcrossLines() {
	a, err := suite.cart.AddLine(suite.sticker, nil, 3)
	suite.Require().NoError(err)
	suite.Equal("[]", a.CombinationKey)

	_, err = suite.cart.AddLine(suite.sticker, models.Selection{}, 2)
	suite.Require().NoError(err, "same selection updates the existing line")
	suite.Equal(2, suite.cart.TotalItems())

	line, removed, err := suite.cart.SetQuantity(a.ID, suite.sticker, 9)
	suite.Require().NoError(err)
	suite.False(removed)
	suite.Equal(4, line.Quantity)

	_, removed, err = suite.cart.SetQuantity(a.ID, suite.sticker, 0)
	suite.Require().NoError(err)
	suite.True(removed)
	suite.Empty(suite.cart.Lines())
}

func (suite *CartTestSuite) TestUpdateVariantsRepricesAndClamps() {
	line, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 4}), 5)
	suite.Require().NoError(err)

	updated, err := suite.cart.UpdateVariants(line.ID, suite.shirt, suite.selection([2]int64{10, 2}, [2]int64{20, 3}))
	suite.Require().NoError(err)
	suite.Equal(line.ID, updated.ID)
	suite.Equal("[2,3]", updated.CombinationKey)
	suite.Equal(107.0, updated.UnitPrice)
	suite.Equal(1, updated.Quantity, "only one unit of M/Red exists")

	_, err = suite.cart.UpdateVariants(line.ID, suite.shirt, suite.selection([2]int64{10, 2}))
	suite.ErrorIs(err, ErrIncompleteSelection)
}

func (suite *CartTestSuite) TestUpdateVariantsMergesIntoExistingLine() {
	a, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 4}), 2)
	suite.Require().NoError(err)
	b, err := suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 3}), 1)
	suite.Require().NoError(err)

	merged, err := suite.cart.UpdateVariants(b.ID, suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 4}))
	suite.Require().NoError(err)
	suite.Equal(a.ID, merged.ID)
	suite.Equal(3, merged.Quantity)
	suite.Len(suite.cart.Lines(), 1)
}

func (suite *CartTestSuite) TestSetQuantityZeroRemoves() {
	line, err := suite.cart.AddLine(suite.sticker, nil, 1)
	suite.Require().NoError(err)

	_, removed, err := suite.cart.SetQuantity(line.ID, suite.sticker, 0)
	suite.Require().NoError(err)
	suite.True(removed)
	suite.Empty(suite.cart.Lines())
}

func (suite *CartTestSuite) TestRemoveAndLookup() {
	line, err := suite.cart.AddLine(suite.sticker, nil, 1)
	suite.Require().NoError(err)
	_, err = suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 4}), 1)
	suite.Require().NoError(err)

	suite.Len(suite.cart.LinesByProductID(1), 1)
	found, ok := suite.cart.FindLine(2, models.Selection{})
	suite.True(ok)
	suite.Equal(line.ID, found.ID)

	suite.NoError(suite.cart.RemoveLine(line.ID))
	suite.ErrorIs(suite.cart.RemoveLine(line.ID), ErrLineNotFound)
	_, err = suite.cart.IncrementQty(uuid.New(), suite.shirt)
	suite.ErrorIs(err, ErrLineNotFound)

	shirtLine := suite.cart.Lines()[0]
	_, err = suite.cart.IncrementQty(shirtLine.ID, suite.sticker)
	suite.ErrorIs(err, ErrProductMismatch)
}

func (suite *CartTestSuite) TestSubtotalIsExact() {
	_, err := suite.cart.AddLine(suite.sticker, nil, 3)
	suite.Require().NoError(err)
	suite.Equal(0.3, suite.cart.Subtotal())
	suite.Equal(3, suite.cart.TotalItems())
}

func (suite *CartTestSuite) TestExpiry() {
	_, err := suite.cart.AddLine(suite.sticker, nil, 1)
	suite.Require().NoError(err)
	suite.Equal(suite.now.Add(DefaultTTL), suite.cart.ExpiresAt())
	suite.False(suite.cart.Expired())

	suite.now = suite.now.Add(DefaultTTL)
	suite.True(suite.cart.Expired())

	_, err = suite.cart.AddLine(suite.shirt, suite.selection([2]int64{10, 1}, [2]int64{20, 4}), 1)
	suite.Require().NoError(err)
	suite.Len(suite.cart.Lines(), 1, "an expired cart starts over on the next add")
	suite.Equal(suite.now.Add(DefaultTTL), suite.cart.ExpiresAt())

	suite.cart.Clear()
	suite.True(suite.cart.ExpiresAt().IsZero())
}

func TestCartTestSuite(t *testing.T) {
	suite.Run(t, new(CartTestSuite))
}

func TestUnmaintainedStockHasNoCeiling(t *testing.T) {
	c := New(uuid.New(), Config{})
	p := &models.Product{ID: 7, Price: 3}

	line, err := c.AddLine(p, nil, 25)
	require.NoError(t, err)
	line, err = c.IncrementQty(line.ID, p)
	require.NoError(t, err)
	assert.Equal(t, 26, line.Quantity)
}

func TestConcurrentWritesAreSerialised(t *testing.T) {
	c := New(uuid.New(), Config{StockIsMaintained: true})
	p := &models.Product{ID: 7, Price: 3, Quantity: 1000}

	line, err := c.AddLine(p, nil, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.IncrementQty(line.ID, p)
		}()
	}
	wg.Wait()

	got, ok := c.Line(line.ID)
	require.True(t, ok)
	assert.Equal(t, 101, got.Quantity)
}
