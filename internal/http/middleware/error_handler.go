package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smetapro/contractor-backend/internal/logger"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно.
// AppError сериализуется с кодом и деталями, остальные ошибки
// маскируются как внутренние.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			logError(c, err, appErr.HTTPStatus)

			body := gin.H{
				"error": appErr.Message,
				"code":  appErr.Code,
			}
			if appErr.Details != nil {
				body["details"] = appErr.Details
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logError(c, err, http.StatusInternalServerError)

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		// Ошибки без AppError с понятным текстом отдаём как есть,
		// внутренние детали наружу не выходят.
		if text := err.Error(); text != "" && !containsInternalKeywords(text) {
			message = text
			if contains(text, "неверный") || contains(text, "невалид") {
				statusCode = http.StatusBadRequest
			} else if contains(text, "нет прав") || contains(text, "не авторизован") {
				statusCode = http.StatusForbidden
			}
		}

		c.JSON(statusCode, gin.H{"error": message, "code": apperror.ErrCodeInternal})
	}
}

func logError(c *gin.Context, err error, status int) {
	if logger.Log == nil {
		return
	}
	entry := logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request error")
	} else {
		entry.Warn("Request error")
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
