package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository/common"
)

var ErrCatalogItemNotFound = errors.New("catalog item not found")

// CatalogRepository читает справочник видов работ.
// Справочник наполняется миграциями и меняется редко.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListActive возвращает активные виды работ в порядке сортировки.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]models.ServiceCatalogItem, error) {
	var items []models.ServiceCatalogItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM service_catalog WHERE is_active = TRUE ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list active %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) GetBySlug(ctx context.Context, slug string) (*models.ServiceCatalogItem, error) {
	return common.GetByField[models.ServiceCatalogItem](ctx, r.db, "service_catalog", "slug", slug, ErrCatalogItemNotFound)
}
