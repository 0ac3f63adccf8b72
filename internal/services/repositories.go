// internal/services/repositories.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Repositories return gorm.ErrRecordNotFound for missing rows, whatever
// their backing store.

type CatalogRepository interface {
	// ListProducts returns active products with variant types, options and
	// stock rows loaded, in catalog order.
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	// ReplaceSnapshot swaps the whole catalog atomically.
	ReplaceSnapshot(ctx context.Context, products []models.Product, categories []models.Category) error
}

type CartRepository interface {
	CreateSession(ctx context.Context, session *models.CartSession) error
	// GetSession loads the session with its lines.
	GetSession(ctx context.Context, id uuid.UUID) (*models.CartSession, error)
	// SaveLines replaces the stored lines of a session and its expiry.
	SaveLines(ctx context.Context, session *models.CartSession, lines []models.CartLine) error
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params utils.PaginationParams) ([]models.Order, int64, error)
}

type PageRepository interface {
	GetPage(ctx context.Context, slug string) (*models.Page, error)
	SavePage(ctx context.Context, page *models.Page) error
}
