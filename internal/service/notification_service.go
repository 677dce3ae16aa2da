package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/smetapro/contractor-backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByContractor(ctx context.Context, contractorID uuid.UUID, limit, offset int) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, contractorID uuid.UUID) error
	CountUnread(ctx context.Context, contractorID uuid.UUID) (int, error)
}

// NotificationService содержит бизнес-логику работы с уведомлениями.
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification создаёт новое уведомление.
func (s *NotificationService) CreateNotification(ctx context.Context, contractorID uuid.UUID, event string, data interface{}) (*models.Notification, error) {
	payload := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal payload %w", err)
	}

	notification := &models.Notification{
		ContractorID: contractorID,
		Payload:      payloadBytes,
		IsRead:       false,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// ListNotifications возвращает список уведомлений подрядчика.
func (s *NotificationService) ListNotifications(ctx context.Context, contractorID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByContractor(ctx, contractorID, limit, offset)
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, contractorID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, contractorID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, contractorID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, contractorID)
}

// CreateNotificationForWS создаёт уведомление (для использования в WebSocket hub).
func (s *NotificationService) CreateNotificationForWS(ctx context.Context, contractorID uuid.UUID, event string, data interface{}) error {
	_, err := s.CreateNotification(ctx, contractorID, event, data)
	return err
}
