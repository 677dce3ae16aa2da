package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smetapro/contractor-backend/internal/http/middleware"
)

var errContractorNotFound = errors.New("подрядчик не найден в контексте")

// currentContractorID извлекает contractorID из контекста.
func currentContractorID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextContractorIDKey)
	if !exists {
		return uuid.Nil, errContractorNotFound
	}

	contractorID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errContractorNotFound
	}

	return contractorID, nil
}

// parseIntQuery читает числовой query параметр с дефолтом.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// pathUUID читает UUID из path параметра. Формат гарантирует
// UUIDValidator middleware, поэтому ошибка парсинга здесь невозможна.
func pathUUID(c *gin.Context, name string) uuid.UUID {
	id, _ := uuid.Parse(c.Param(name))
	return id
}

// respondUnauthorized отправляет 401 с сообщением.
func respondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
}

// respondBadRequest отправляет 400 с сообщением.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
