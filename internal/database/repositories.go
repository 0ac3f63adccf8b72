// internal/database/repositories.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const snapshotBatchSize = 100

// CatalogRepository stores the catalog snapshot in postgres.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) withVariants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("VariantTypes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, id")
		}).
		Preload("VariantTypes.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, id")
		}).
		Preload("StockCombinations", "is_active = ?", true)
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.withVariants(ctx).
		Where("is_active = ?", true).
		Order("serial, id").
		Find(&products).Error
	return products, err
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.withVariants(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

// ReplaceSnapshot deletes the previous catalog and inserts the new one in a
// single transaction. Readers see either catalog, never a mix.
func (r *CatalogRepository) ReplaceSnapshot(ctx context.Context, products []models.Product, categories []models.Category) error {
	return WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.StockCombination{},
			&models.VariantOption{},
			&models.VariantType{},
			&models.Product{},
			&models.Category{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		if len(categories) > 0 {
			if err := tx.CreateInBatches(categories, snapshotBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert categories: %w", err)
			}
		}
		if len(products) > 0 {
			// Variant types, options and stock rows are created as associations.
			if err := tx.CreateInBatches(products, snapshotBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert products: %w", err)
			}
		}
		return nil
	})
}

// CartRepository stores cart sessions and their lines.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) CreateSession(ctx context.Context, session *models.CartSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *CartRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.CartSession, error) {
	var session models.CartSession
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveLines rewrites the lines of a session. Lines keep their ids, so the old
// rows are removed for good rather than soft deleted.
func (r *CartRepository) SaveLines(ctx context.Context, session *models.CartSession, lines []models.CartLine) error {
	return WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		res := tx.Model(&models.CartSession{}).
			Where("id = ?", session.ID).
			Update("expires_at", session.ExpiresAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Unscoped().Where("session_id = ?", session.ID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		rows := make([]models.CartLine, len(lines))
		copy(rows, lines)
		for i := range rows {
			rows[i].SessionID = session.ID
		}
		return tx.Create(&rows).Error
	})
}

func (r *CartRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	res := r.db.WithContext(ctx).Model(&models.CartSession{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// OrderRepository stores checkout orders.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if params.Search != "" {
		query = query.Where("status = ? OR payment_reference = ?", params.Search, params.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	query = utils.ApplySort(query, params, []string{"created_at", "subtotal", "status"})
	if err := utils.ApplyPagination(query, params).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// PageRepository stores themed pages.
type PageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) GetPage(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	if err := r.db.WithContext(ctx).First(&page, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// SavePage inserts the page or overwrites the page with the same slug.
func (r *PageRepository) SavePage(ctx context.Context, page *models.Page) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "title", "sections"}),
	}).Create(page).Error
}
