// Package cart holds a shopper's cart lines. All writes go through one
// mutex; quantities are clamped with the variants engine against the stock of
// the line's current combination, and prices are stored as the engine
// computed them.
package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/variants"
)

var (
	ErrLineNotFound        = errors.New("cart line not found")
	ErrIncompleteSelection = errors.New("a mandatory variant has no selection")
	ErrNotSatisfiable      = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrProductMismatch     = errors.New("product does not match cart line")
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	StockIsMaintained bool
	// TTL counts from the first line added to an empty cart.
	TTL time.Duration
	Now func() time.Time
}

type Cart struct {
	mu        sync.Mutex
	sessionID uuid.UUID
	lines     []models.CartLine
	expiresAt time.Time
	cfg       Config
}

func New(sessionID uuid.UUID, cfg Config) *Cart {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cart{sessionID: sessionID, cfg: cfg}
}

// Restore replaces the cart content with persisted lines.
func (c *Cart) Restore(lines []models.CartLine, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append([]models.CartLine(nil), lines...)
	c.expiresAt = expiresAt
}

func (c *Cart) SessionID() uuid.UUID {
	return c.sessionID
}

// ExpiresAt is zero while the cart has never held a line.
func (c *Cart) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}

func (c *Cart) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiredLocked()
}

func (c *Cart) expiredLocked() bool {
	return !c.expiresAt.IsZero() && !c.cfg.Now().Before(c.expiresAt)
}

// AddLine puts a selection of p into the cart. When a line with the same
// options already exists its quantity is replaced by qty, capped at what the
// stock leaves once the cart's other lines on the combination are counted.
// Otherwise a new line is created if qty fits in the stock
// the cart does not already hold.
func (c *Cart) AddLine(p *models.Product, sel models.Selection, qty int) (models.CartLine, error) {
	if qty < 1 {
		return models.CartLine{}, ErrInvalidQuantity
	}

	clean := variants.Sanitize(p, sel)
	key := variants.ComputeCombinationKey(p, clean)
	if !key.IsComplete() {
		return models.CartLine{}, ErrIncompleteSelection
	}
	available := variants.ResolveStock(p, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expiredLocked() {
		c.lines = nil
		c.expiresAt = time.Time{}
	}

	if i := c.findLocked(p.ID, clean); i >= 0 {
		line := &c.lines[i]
		if ceiling := c.ceilingLocked(i, p, clean); c.cfg.StockIsMaintained && qty > ceiling {
			qty = ceiling
		}
		if qty < 1 {
			return models.CartLine{}, ErrNotSatisfiable
		}
		line.Quantity = qty
		line.UpdatedAt = c.cfg.Now()
		return *line, nil
	}

	remaining := variants.RemainingStock(available, variants.InCartQuantity(p, key, c.lines))
	if !variants.IsQuantitySatisfiable(remaining, qty, c.cfg.StockIsMaintained) {
		return models.CartLine{}, ErrNotSatisfiable
	}

	now := c.cfg.Now()
	line := models.CartLine{
		BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		SessionID:      c.sessionID,
		ProductID:      p.ID,
		ProductName:    p.Name,
		ImageURL:       lineImage(p, clean),
		Selection:      clean,
		CombinationKey: key.String(),
		Quantity:       qty,
		UnitPrice:      variants.ComputePrice(p, clean),
	}
	if len(c.lines) == 0 {
		c.expiresAt = now.Add(c.cfg.TTL)
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// IncrementQty steps a line up by one, clamped at what the stock leaves for
// this line. When nothing is left the line is unchanged and ErrNotSatisfiable
// is returned; a line always holds at least one unit.
func (c *Cart) IncrementQty(lineID uuid.UUID, p *models.Product) (models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.lineLocked(lineID, p)
	if err != nil {
		return models.CartLine{}, err
	}
	line := &c.lines[i]
	qty := variants.Increment(line.Quantity, c.ceilingLocked(i, p, line.Selection), c.cfg.StockIsMaintained)
	if qty < 1 {
		return *line, ErrNotSatisfiable
	}
	line.Quantity = qty
	line.UpdatedAt = c.cfg.Now()
	return *line, nil
}

// DecrementQty steps a line down by one. It never goes below 1; use
// RemoveLine to drop the line.
func (c *Cart) DecrementQty(lineID uuid.UUID) (models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(lineID)
	if i < 0 {
		return models.CartLine{}, ErrLineNotFound
	}
	line := &c.lines[i]
	line.Quantity = variants.Decrement(line.Quantity)
	line.UpdatedAt = c.cfg.Now()
	return *line, nil
}

// SetQuantity sets a line's quantity, clamped at the stock ceiling. A
// quantity of zero or less removes the line; removed reports that case.
func (c *Cart) SetQuantity(lineID uuid.UUID, p *models.Product, qty int) (line models.CartLine, removed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.lineLocked(lineID, p)
	if err != nil {
		return models.CartLine{}, false, err
	}
	if qty <= 0 {
		line = c.lines[i]
		c.removeLocked(i)
		return line, true, nil
	}

	c.lines[i].Quantity = variants.Clamp(qty, c.ceilingLocked(i, p, c.lines[i].Selection), c.cfg.StockIsMaintained)
	c.lines[i].UpdatedAt = c.cfg.Now()
	return c.lines[i], false, nil
}

// UpdateVariants swaps the selection of a line and reprices it from the
// product's base price and the new options. The quantity is re-clamped
// against the new combination. If another line already holds the new
// selection the two are merged into that line.
func (c *Cart) UpdateVariants(lineID uuid.UUID, p *models.Product, sel models.Selection) (models.CartLine, error) {
	clean := variants.Sanitize(p, sel)
	key := variants.ComputeCombinationKey(p, clean)
	if !key.IsComplete() {
		return models.CartLine{}, ErrIncompleteSelection
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.lineLocked(lineID, p)
	if err != nil {
		return models.CartLine{}, err
	}

	qty := c.lines[i].Quantity
	if j := c.findLocked(p.ID, clean); j >= 0 && j != i {
		qty += c.lines[j].Quantity
		c.removeLocked(i)
		if j > i {
			j--
		}
		i = j
	}

	line := &c.lines[i]
	line.Selection = clean
	line.CombinationKey = key.String()
	line.UnitPrice = variants.ComputePrice(p, clean)
	line.ImageURL = lineImage(p, clean)
	line.Quantity = variants.Clamp(qty, c.ceilingLocked(i, p, clean), c.cfg.StockIsMaintained)
	line.UpdatedAt = c.cfg.Now()
	return *line, nil
}

func (c *Cart) RemoveLine(lineID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(lineID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.removeLocked(i)
	return nil
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.expiresAt = time.Time{}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine{}, c.lines...)
}

func (c *Cart) Line(lineID uuid.UUID) (models.CartLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(lineID); i >= 0 {
		return c.lines[i], true
	}
	return models.CartLine{}, false
}

func (c *Cart) LinesByProductID(productID int64) []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.CartLine
	for _, line := range c.lines {
		if line.ProductID == productID {
			out = append(out, line)
		}
	}
	return out
}

// FindLine returns the line holding the same options of the product.
func (c *Cart) FindLine(productID int64, sel models.Selection) (models.CartLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.findLocked(productID, sel); i >= 0 {
		return c.lines[i], true
	}
	return models.CartLine{}, false
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// Subtotal sums the frozen unit prices times quantities.
func (c *Cart) Subtotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	totals := make([]float64, 0, len(c.lines))
	for _, line := range c.lines {
		totals = append(totals, utils.LineTotal(line.UnitPrice, line.Quantity))
	}
	return utils.SumPrices(0, totals...)
}

func (c *Cart) indexLocked(lineID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) lineLocked(lineID uuid.UUID, p *models.Product) (int, error) {
	i := c.indexLocked(lineID)
	if i < 0 {
		return -1, ErrLineNotFound
	}
	if c.lines[i].ProductID != p.ID {
		return -1, ErrProductMismatch
	}
	return i, nil
}

func (c *Cart) findLocked(productID int64, sel models.Selection) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID && c.lines[i].Selection.SameOptions(sel) {
			return i
		}
	}
	return -1
}

// ceilingLocked is the stock left for line i once every other line drawing
// on the same stock is taken out.
func (c *Cart) ceilingLocked(i int, p *models.Product, sel models.Selection) int {
	key := variants.ComputeCombinationKey(p, sel)
	available := variants.ResolveStock(p, key)

	others := make([]models.CartLine, 0, len(c.lines))
	others = append(others, c.lines[:i]...)
	others = append(others, c.lines[i+1:]...)
	return variants.RemainingStock(available, variants.InCartQuantity(p, key, others))
}

func (c *Cart) removeLocked(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.expiresAt = time.Time{}
	}
}

func lineImage(p *models.Product, sel models.Selection) string {
	if url := sel.ImageURL(); url != "" {
		return url
	}
	return p.ImageURL
}
