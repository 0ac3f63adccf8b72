// internal/services/snapshot_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/sections"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/variants"
)

// Snapshot is the catalog document published by the catalog owner.
type Snapshot struct {
	Products   []models.Product  `json:"products"`
	Categories []models.Category `json:"categories"`
	Pages      []SnapshotPage    `json:"pages,omitempty"`
}

// SnapshotPage is a themed page as published, with its sections inline.
type SnapshotPage struct {
	Slug     string          `json:"slug"`
	Theme    string          `json:"theme"`
	Title    string          `json:"title"`
	Sections json.RawMessage `json:"sections"`
}

type ImportRequest struct {
	Key     string `json:"key"`
	Archive bool   `json:"archive"`
}

type ImportResult struct {
	Key         string `json:"key"`
	Checksum    string `json:"checksum"`
	ArchiveKey  string `json:"archive_key,omitempty"`
	Products    int    `json:"products"`
	Categories  int    `json:"categories"`
	Pages       int    `json:"pages"`
	StockRows   int    `json:"stock_rows"`
	DroppedRows int    `json:"dropped_rows"`
}

// SnapshotService replaces the local catalog with a published snapshot.
type SnapshotService struct {
	storage *StorageService
	repo    CatalogRepository
	pages   *PageService
}

func NewSnapshotService(storage *StorageService, repo CatalogRepository, pages *PageService) *SnapshotService {
	return &SnapshotService{storage: storage, repo: repo, pages: pages}
}

// Import fetches the snapshot at req.Key and loads it.
func (s *SnapshotService) Import(ctx context.Context, req *ImportRequest) (*ImportResult, error) {
	key := req.Key
	if key == "" {
		key = s.storage.DefaultKey()
	}

	data, err := s.storage.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	result, err := s.ImportBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	result.Key = key

	if req.Archive {
		archiveKey, err := s.storage.Archive(ctx, data, result.Checksum)
		if err != nil {
			// The catalog is already replaced; a failed archive is not fatal.
			logrus.WithError(err).WithField("checksum", result.Checksum).Warn("Failed to archive snapshot")
		} else {
			result.ArchiveKey = archiveKey
		}
	}
	return result, nil
}

// ImportBytes decodes, canonicalises and stores a snapshot document.
func (s *SnapshotService) ImportBytes(ctx context.Context, data []byte) (*ImportResult, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}

	if err := applyActiveDefaults(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}

	result := &ImportResult{
		Checksum:   utils.ChecksumBytes(data),
		Products:   len(snap.Products),
		Categories: len(snap.Categories),
		Pages:      len(snap.Pages),
	}

	for _, page := range snap.Pages {
		if page.Slug == "" {
			return nil, fmt.Errorf("%w: page without slug", ErrSnapshotInvalid)
		}
		if _, err := sections.Decode(page.Sections); err != nil {
			return nil, fmt.Errorf("%w: page %q: %v", ErrSnapshotInvalid, page.Slug, err)
		}
	}

	seen := make(map[int64]struct{}, len(snap.Products))
	for i := range snap.Products {
		p := &snap.Products[i]
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", ErrSnapshotInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}

		kept, dropped := normalizeProduct(p)
		result.StockRows += kept
		result.DroppedRows += dropped
	}

	if err := s.repo.ReplaceSnapshot(ctx, snap.Products, snap.Categories); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	for _, page := range snap.Pages {
		err := s.pages.SavePage(ctx, &models.Page{
			Slug:     page.Slug,
			Theme:    page.Theme,
			Title:    page.Title,
			Sections: string(page.Sections),
		})
		if err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"checksum":     result.Checksum,
		"products":     result.Products,
		"categories":   result.Categories,
		"pages":        result.Pages,
		"stock_rows":   result.StockRows,
		"dropped_rows": result.DroppedRows,
	}).Info("Catalog snapshot imported")
	return result, nil
}

// normalizeProduct links children to their parents, orders types and options
// by position and rewrites stock keys in canonical form. Inactive rows are
// skipped, which leaves their combination at zero stock. Rows whose key does
// not parse, or that repeat a key, are dropped.
func normalizeProduct(p *models.Product) (kept, dropped int) {
	sort.SliceStable(p.VariantTypes, func(i, j int) bool {
		return p.VariantTypes[i].Position < p.VariantTypes[j].Position
	})
	for i := range p.VariantTypes {
		vt := &p.VariantTypes[i]
		vt.ProductID = p.ID
		sort.SliceStable(vt.Options, func(a, b int) bool {
			return vt.Options[a].Position < vt.Options[b].Position
		})
		for j := range vt.Options {
			vt.Options[j].VariantTypeID = vt.ID
		}
	}

	rows := p.StockCombinations[:0]
	keys := make(map[string]struct{}, len(p.StockCombinations))
	for _, row := range p.StockCombinations {
		if !row.IsActive {
			continue
		}
		key, err := variants.ParseCombinationKey(row.CombinationKey)
		if err != nil {
			logrus.WithError(err).WithField("product_id", p.ID).Warn("Dropping stock row with invalid combination")
			dropped++
			continue
		}
		if _, dup := keys[key.String()]; dup {
			logrus.WithFields(logrus.Fields{"product_id": p.ID, "combination": key.String()}).Warn("Dropping duplicate stock row")
			dropped++
			continue
		}
		keys[key.String()] = struct{}{}

		row.ID = 0
		row.ProductID = p.ID
		row.CombinationKey = key.String()
		if row.Quantity < 0 {
			row.Quantity = 0
		}
		rows = append(rows, row)
	}
	p.StockCombinations = rows
	return len(rows), dropped
}

// applyActiveDefaults marks products and stock rows active unless the
// document sets is_active explicitly.
func applyActiveDefaults(data []byte, snap *Snapshot) error {
	var flags struct {
		Products []struct {
			IsActive *bool `json:"is_active"`
			Stocks   []struct {
				IsActive *bool `json:"is_active"`
			} `json:"stocks"`
		} `json:"products"`
	}
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}

	for i := range snap.Products {
		p := &snap.Products[i]
		f := flags.Products[i]
		p.IsActive = f.IsActive == nil || *f.IsActive
		for j := range p.StockCombinations {
			active := f.Stocks[j].IsActive
			p.StockCombinations[j].IsActive = active == nil || *active
		}
	}
	return nil
}
