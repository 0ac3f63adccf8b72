// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/cart"
	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/variants"
)

// CartService keeps one cart.Cart per open session. A session's cart is
// loaded on first use, mutated and persisted under the session's own lock,
// and dropped from memory on checkout or expiry.
type CartService struct {
	repo     CartRepository
	products *ProductService
	cfg      *config.Config
	now      func() time.Time

	mu    sync.Mutex
	carts map[uuid.UUID]*cartEntry
}

type cartEntry struct {
	mu   sync.Mutex
	cart *cart.Cart
}

type SessionToken struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AddLineRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Selection map[int64]int64 `json:"selection"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
}

type UpdateVariantsRequest struct {
	Selection map[int64]int64 `json:"selection" validate:"required"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type CartView struct {
	SessionID  uuid.UUID         `json:"session_id"`
	Lines      []models.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	Subtotal   float64           `json:"subtotal"`
	Currency   string            `json:"currency"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
}

func NewCartService(repo CartRepository, products *ProductService, cfg *config.Config) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		cfg:      cfg,
		now:      time.Now,
		carts:    make(map[uuid.UUID]*cartEntry),
	}
}

// StartSession creates an empty cart session and signs a token for it.
func (s *CartService) StartSession(ctx context.Context, locale string) (*SessionToken, error) {
	session := &models.CartSession{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Status:    models.SessionStatusOpen,
		Locale:    locale,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, expiresAt, err := utils.GenerateSessionToken(session.ID, locale, s.cfg.JWT.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.mu.Lock()
	s.carts[session.ID] = &cartEntry{cart: s.newCart(session.ID)}
	s.mu.Unlock()

	return &SessionToken{SessionID: session.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// Lines returns the session's lines, for resolving stock already held.
func (s *CartService) Lines(ctx context.Context, sessionID uuid.UUID) ([]models.CartLine, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return entry.cart.Lines(), nil
}

func (s *CartService) GetCart(ctx context.Context, sessionID uuid.UUID) (*CartView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(entry.cart), nil
}

func (s *CartService) AddLine(ctx context.Context, sessionID uuid.UUID, req *AddLineRequest) (*CartView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		_, err := c.AddLine(product, variants.FromChoices(product, req.Selection), req.Quantity)
		return err
	})
}

func (s *CartService) IncrementLine(ctx context.Context, sessionID, lineID uuid.UUID) (*CartView, error) {
	return s.mutateLine(ctx, sessionID, lineID, func(c *cart.Cart, p *models.Product) error {
		_, err := c.IncrementQty(lineID, p)
		return err
	})
}

func (s *CartService) DecrementLine(ctx context.Context, sessionID, lineID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		_, err := c.DecrementQty(lineID)
		return err
	})
}

func (s *CartService) SetLineQuantity(ctx context.Context, sessionID, lineID uuid.UUID, req *SetQuantityRequest) (*CartView, error) {
	return s.mutateLine(ctx, sessionID, lineID, func(c *cart.Cart, p *models.Product) error {
		_, _, err := c.SetQuantity(lineID, p, req.Quantity)
		return err
	})
}

func (s *CartService) UpdateLineVariants(ctx context.Context, sessionID, lineID uuid.UUID, req *UpdateVariantsRequest) (*CartView, error) {
	return s.mutateLine(ctx, sessionID, lineID, func(c *cart.Cart, p *models.Product) error {
		_, err := c.UpdateVariants(lineID, p, variants.FromChoices(p, req.Selection))
		return err
	})
}

func (s *CartService) RemoveLine(ctx context.Context, sessionID, lineID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return c.RemoveLine(lineID)
	})
}

func (s *CartService) ClearCart(ctx context.Context, sessionID uuid.UUID) (*CartView, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// Settle runs fn over the cart lines under the session lock. When fn
// succeeds the session is closed as checked out and its cart released.
func (s *CartService) Settle(ctx context.Context, sessionID uuid.UUID, fn func(view *CartView) error) error {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	view := s.view(entry.cart)
	if len(view.Lines) == 0 {
		return ErrCartEmpty
	}
	if err := fn(view); err != nil {
		return err
	}

	entry.cart.Clear()
	if err := s.persist(ctx, entry.cart); err != nil {
		return err
	}
	return s.close(ctx, sessionID, models.SessionStatusCheckedOut)
}

// SweepExpired empties every in-memory cart past its expiry and releases
// it. The session stays open; the shopper starts over on the next visit.
// It returns the number of carts released.
func (s *CartService) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	expired := make(map[uuid.UUID]*cartEntry)
	for id, entry := range s.carts {
		if entry.cart.Expired() {
			expired[id] = entry
		}
	}
	s.mu.Unlock()

	for id, entry := range expired {
		if err := s.resetIfExpired(ctx, entry); err != nil {
			logrus.WithError(err).WithField("session_id", id).Warn("Failed to reset expired cart")
			continue
		}
		s.mu.Lock()
		delete(s.carts, id)
		s.mu.Unlock()
	}
	return len(expired)
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *CartService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepExpired(ctx); n > 0 {
				logrus.WithField("count", n).Info("Released expired carts")
			}
		}
	}
}

func (s *CartService) mutate(ctx context.Context, sessionID uuid.UUID, fn func(c *cart.Cart) error) (*CartView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := fn(entry.cart); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entry.cart); err != nil {
		return nil, err
	}
	return s.view(entry.cart), nil
}

func (s *CartService) mutateLine(ctx context.Context, sessionID, lineID uuid.UUID, fn func(c *cart.Cart, p *models.Product) error) (*CartView, error) {
	entry, err := s.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line, ok := entry.cart.Line(lineID)
	if !ok {
		return nil, ErrLineNotFound
	}
	product, err := s.products.GetProduct(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return fn(c, product)
	})
}

// entry returns the in-memory cart of an open session, loading it from the
// repository when needed. An expired cart is emptied on load.
func (s *CartService) entry(ctx context.Context, sessionID uuid.UUID) (*cartEntry, error) {
	s.mu.Lock()
	entry, ok := s.carts[sessionID]
	s.mu.Unlock()
	if ok {
		if err := s.resetIfExpired(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session.Status != models.SessionStatusOpen {
		return nil, ErrSessionClosed
	}

	c := s.newCart(sessionID)
	var expiresAt time.Time
	if session.ExpiresAt != nil {
		expiresAt = *session.ExpiresAt
	}
	c.Restore(session.Lines, expiresAt)
	if c.Expired() {
		c.Clear()
		if err := s.persist(ctx, c); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.carts[sessionID]; ok {
		return existing, nil
	}
	entry = &cartEntry{cart: c}
	s.carts[sessionID] = entry
	return entry, nil
}

func (s *CartService) resetIfExpired(ctx context.Context, entry *cartEntry) error {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.cart.Expired() {
		return nil
	}
	entry.cart.Clear()
	return s.persist(ctx, entry.cart)
}

func (s *CartService) newCart(sessionID uuid.UUID) *cart.Cart {
	return cart.New(sessionID, cart.Config{
		StockIsMaintained: s.cfg.Shop.StockMaintained,
		TTL:               time.Duration(s.cfg.Shop.CartExpiryHours) * time.Hour,
		Now:               s.now,
	})
}

func (s *CartService) persist(ctx context.Context, c *cart.Cart) error {
	session := &models.CartSession{
		BaseModel: models.BaseModel{ID: c.SessionID()},
		Status:    models.SessionStatusOpen,
	}
	if expiresAt := c.ExpiresAt(); !expiresAt.IsZero() {
		session.ExpiresAt = &expiresAt
	}

	if err := s.repo.SaveLines(ctx, session, c.Lines()); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *CartService) close(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()

	if err := s.repo.UpdateSessionStatus(ctx, sessionID, status); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *CartService) view(c *cart.Cart) *CartView {
	view := &CartView{
		SessionID:  c.SessionID(),
		Lines:      c.Lines(),
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
		Currency:   s.cfg.Shop.Currency,
	}
	if expiresAt := c.ExpiresAt(); !expiresAt.IsZero() {
		view.ExpiresAt = &expiresAt
	}
	return view
}
