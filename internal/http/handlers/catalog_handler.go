package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

// CatalogReader читает справочник видов работ.
type CatalogReader interface {
	ListActive(ctx context.Context) ([]models.ServiceCatalogItem, error)
	GetBySlug(ctx context.Context, slug string) (*models.ServiceCatalogItem, error)
}

type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices GET /api/catalog/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService GET /api/catalog/services/:slug
func (h *CatalogHandler) GetService(c *gin.Context) {
	service, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrCatalogItemNotFound) {
			c.Error(apperror.New(apperror.ErrCodeNotFound, "вид работ не найден"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service)
}
