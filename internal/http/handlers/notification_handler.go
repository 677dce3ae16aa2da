package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), contractorID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[models.Notification]{Items: notifications, Limit: limit, Offset: offset})
}

// MarkAsRead POST /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), pathUUID(c, "id"), contractorID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CountUnread GET /api/notifications/unread
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	contractorID, err := currentContractorID(c)
	if err != nil {
		respondUnauthorized(c, err.Error())
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), contractorID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}
