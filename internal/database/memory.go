// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// MemoryStore keeps every table in process memory. It backs the "memory"
// database driver and the service tests; missing rows are reported as
// gorm.ErrRecordNotFound like the postgres repositories.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []models.Product
	categories []models.Category
	sessions   map[uuid.UUID]models.CartSession
	lines      map[uuid.UUID][]models.CartLine
	orders     map[uuid.UUID]models.Order
	pages      map[string]models.Page
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]models.CartSession),
		lines:    make(map[uuid.UUID][]models.CartLine),
		orders:   make(map[uuid.UUID]models.Order),
		pages:    make(map[string]models.Page),
		now:      time.Now,
	}
}

// Catalog

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.products {
		if m.products[i].ID == id && m.products[i].IsActive {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Category, len(m.categories))
	copy(out, m.categories)
	return out, nil
}

func (m *MemoryStore) ReplaceSnapshot(ctx context.Context, products []models.Product, categories []models.Category) error {
	ps := make([]models.Product, len(products))
	copy(ps, products)
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Serial != ps[j].Serial {
			return ps[i].Serial < ps[j].Serial
		}
		return ps[i].ID < ps[j].ID
	})

	cs := make([]models.Category, len(categories))
	copy(cs, categories)
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = ps
	m.categories = cs
	return nil
}

// Cart sessions

func (m *MemoryStore) CreateSession(ctx context.Context, session *models.CartSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := m.now()
	session.CreatedAt, session.UpdatedAt = now, now
	stored := *session
	stored.Lines = nil
	m.sessions[session.ID] = stored
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id uuid.UUID) (*models.CartSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	session.Lines = append([]models.CartLine(nil), m.lines[id]...)
	return &session, nil
}

func (m *MemoryStore) SaveLines(ctx context.Context, session *models.CartSession, lines []models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[session.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.ExpiresAt = session.ExpiresAt
	stored.UpdatedAt = m.now()
	m.sessions[session.ID] = stored

	rows := make([]models.CartLine, len(lines))
	copy(rows, lines)
	for i := range rows {
		rows[i].SessionID = session.ID
	}
	m.lines[session.ID] = rows
	return nil
}

func (m *MemoryStore) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	stored.UpdatedAt = m.now()
	m.sessions[id] = stored
	return nil
}

// Orders

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := m.now()
	order.CreatedAt, order.UpdatedAt = now, now
	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	order.UpdatedAt = m.now()
	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &order, nil
}

// ListOrders matches Search against the status or payment reference and
// always sorts by created_at.
func (m *MemoryStore) ListOrders(ctx context.Context, params utils.PaginationParams) ([]models.Order, int64, error) {
	m.mu.RLock()
	all := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if params.Search == "" || string(o.Status) == params.Search || o.PaymentReference == params.Search {
			all = append(all, o)
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if params.Order == "asc" {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	from := (params.Page - 1) * params.Limit
	if from >= len(all) || from < 0 {
		return []models.Order{}, total, nil
	}
	to := from + params.Limit
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], total, nil
}

// Pages

func (m *MemoryStore) GetPage(ctx context.Context, slug string) (*models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page, ok := m.pages[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &page, nil
}

func (m *MemoryStore) SavePage(ctx context.Context, page *models.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.pages[page.Slug]; ok {
		page.ID = existing.ID
	} else if page.ID == 0 {
		page.ID = int64(len(m.pages) + 1)
	}
	m.pages[page.Slug] = *page
	return nil
}
