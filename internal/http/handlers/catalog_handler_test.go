package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smetapro/contractor-backend/internal/http/middleware"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository"
)

type catalogMock struct {
	mock.Mock
}

func (m *catalogMock) ListActive(ctx context.Context) ([]models.ServiceCatalogItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ServiceCatalogItem), args.Error(1)
}

func (m *catalogMock) GetBySlug(ctx context.Context, slug string) (*models.ServiceCatalogItem, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceCatalogItem), args.Error(1)
}

func newCatalogRouter(catalog *catalogMock) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewCatalogHandler(catalog)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/api/catalog/services", h.ListServices)
	r.GET("/api/catalog/services/:slug", h.GetService)

	return r
}

func TestCatalogHandler_ListServices(t *testing.T) {
	catalog := new(catalogMock)
	r := newCatalogRouter(catalog)

	catalog.On("ListActive", mock.Anything).Return([]models.ServiceCatalogItem{
		{Slug: "plumbing", Name: "Сантехника"},
		{Slug: "general", Name: "Общие работы"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/services", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Services []models.ServiceCatalogItem `json:"services"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Services, 2)
}

func TestCatalogHandler_GetService(t *testing.T) {
	catalog := new(catalogMock)
	r := newCatalogRouter(catalog)

	catalog.On("GetBySlug", mock.Anything, "plumbing").Return(&models.ServiceCatalogItem{
		Slug: "plumbing",
		Name: "Сантехника",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/services/plumbing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var item models.ServiceCatalogItem
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "plumbing", item.Slug)
}

func TestCatalogHandler_GetService_NotFound(t *testing.T) {
	catalog := new(catalogMock)
	r := newCatalogRouter(catalog)

	catalog.On("GetBySlug", mock.Anything, "unknown").Return(nil, repository.ErrCatalogItemNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/services/unknown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Code string `json:"code"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}
