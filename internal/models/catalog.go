package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceCatalogItem представляет вид работ в каталоге услуг подрядчика.
// Keywords хранит список подстрок через запятую для эвристики
// определения вида работ по описанию позиций счёта.
type ServiceCatalogItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	Keywords  *string   `db:"keywords" json:"keywords,omitempty"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
