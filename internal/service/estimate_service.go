package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smetapro/contractor-backend/internal/domain/valueobject"
	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/goroutine"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

// EstimateStore описывает взаимодействие сервиса с хранилищем смет.
type EstimateStore interface {
	Create(ctx context.Context, estimate *models.Estimate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Estimate, error)
	UpdateDraft(ctx context.Context, estimate *models.Estimate) error
	MarkSent(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string) (*models.Estimate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error)
}

// InvoiceConverter выполняет транзакцию конвертации сметы в счёт.
type InvoiceConverter interface {
	CreateFromEstimate(ctx context.Context, estimate *models.Estimate, invoice *models.Invoice) error
	NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error)
}

// HistoryStore пишет журнал аудита вне платёжных транзакций и читает его
// для детальных ответов.
type HistoryStore interface {
	Add(ctx context.Context, entityType string, entityID uuid.UUID, contractorID *uuid.UUID, action string, oldValue, newValue interface{}) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.LedgerHistory, error)
}

// Notifier создаёт уведомление и рассылает его в WebSocket hub.
type Notifier interface {
	CreateNotificationForWS(ctx context.Context, contractorID uuid.UUID, event string, data interface{}) error
}

// EstimateService содержит бизнес-логику жизненного цикла смет.
type EstimateService struct {
	estimates EstimateStore
	invoices  InvoiceConverter
	history   HistoryStore
	notifier  Notifier
	logger    *logrus.Logger

	estimatePrefix string
	invoicePrefix  string
	invoiceDueDays int
}

// NewEstimateService создаёт сервис смет.
func NewEstimateService(estimates EstimateStore, invoices InvoiceConverter, history HistoryStore, notifier Notifier, logger *logrus.Logger, estimatePrefix, invoicePrefix string, invoiceDueDays int) *EstimateService {
	return &EstimateService{
		estimates:      estimates,
		invoices:       invoices,
		history:        history,
		notifier:       notifier,
		logger:         logger,
		estimatePrefix: estimatePrefix,
		invoicePrefix:  invoicePrefix,
		invoiceDueDays: invoiceDueDays,
	}
}

// Create создаёт черновик сметы. Суммы позиций и итоги считаются на
// сервере из количества и цены, присланные клиентом значения игнорируются.
func (s *EstimateService) Create(ctx context.Context, contractorID uuid.UUID, req dto.CreateEstimateRequest) (*models.Estimate, error) {
	estimate, err := s.buildEstimate(contractorID, req.ClientID, req.ProjectID, req.Tax, req.Discount, req.Notes, req.Items)
	if err != nil {
		return nil, err
	}

	estimate.Status = models.EstimateStatusDraft
	_, err = withDocumentNumber(ctx, s.estimatePrefix, contractorID, s.estimates.NumberExists,
		func(ctx context.Context, number string) error {
			estimate.Number = number
			return s.estimates.Create(ctx, estimate)
		})
	if err != nil {
		return nil, err
	}

	s.audit(estimate.ID, contractorID, models.HistoryActionCreated, nil, map[string]interface{}{
		"number": estimate.Number,
		"total":  estimate.Total,
	})

	return estimate, nil
}

// Get возвращает смету с позициями и журналом изменений.
func (s *EstimateService) Get(ctx context.Context, contractorID, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := s.estimates.GetWithItems(ctx, id)
	if err != nil {
		return nil, mapEstimateError(err)
	}
	if estimate.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}

	history, err := s.history.ListByEntity(ctx, models.HistoryEntityEstimate, id, 0)
	if err != nil {
		return nil, err
	}
	estimate.History = history

	return estimate, nil
}

// List возвращает сметы подрядчика.
func (s *EstimateService) List(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Estimate, error) {
	if status != "" {
		if _, ok := models.ValidEstimateStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус сметы")
		}
	}
	limit, offset = normalizePage(limit, offset)
	return s.estimates.ListByContractor(ctx, contractorID, status, limit, offset)
}

// Update обновляет черновик сметы с полной заменой позиций.
func (s *EstimateService) Update(ctx context.Context, contractorID, id uuid.UUID, req dto.UpdateEstimateRequest) (*models.Estimate, error) {
	current, err := s.estimates.GetByID(ctx, id)
	if err != nil {
		return nil, mapEstimateError(err)
	}
	if current.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}
	if current.Status != models.EstimateStatusDraft {
		return nil, invalidTransition(current.Status, "редактирование доступно только для черновиков")
	}

	estimate, err := s.buildEstimate(contractorID, req.ClientID, req.ProjectID, req.Tax, req.Discount, req.Notes, req.Items)
	if err != nil {
		return nil, err
	}
	estimate.ID = id
	estimate.Number = current.Number

	if err := s.estimates.UpdateDraft(ctx, estimate); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, invalidTransition(current.Status, "смета уже изменила статус")
		}
		return nil, err
	}

	return s.estimates.GetWithItems(ctx, id)
}

// Send переводит черновик в статус sent.
func (s *EstimateService) Send(ctx context.Context, contractorID, id uuid.UUID) (*models.Estimate, error) {
	return s.transition(ctx, contractorID, id, valueobject.EstimateStatusSent,
		models.HistoryActionSent, "estimate.sent",
		func(ctx context.Context) (*models.Estimate, error) { return s.estimates.MarkSent(ctx, id) })
}

// Accept принимает смету. Допустимо из draft и sent.
func (s *EstimateService) Accept(ctx context.Context, contractorID, id uuid.UUID) (*models.Estimate, error) {
	return s.transition(ctx, contractorID, id, valueobject.EstimateStatusAccepted,
		models.HistoryActionAccepted, "estimate.accepted",
		func(ctx context.Context) (*models.Estimate, error) { return s.estimates.MarkAccepted(ctx, id) })
}

// Reject отклоняет смету. Причина обязательна.
func (s *EstimateService) Reject(ctx context.Context, contractorID, id uuid.UUID, reason string) (*models.Estimate, error) {
	if reason == "" {
		return nil, apperror.ErrMissingReason
	}
	return s.transition(ctx, contractorID, id, valueobject.EstimateStatusRejected,
		models.HistoryActionRejected, "estimate.rejected",
		func(ctx context.Context) (*models.Estimate, error) { return s.estimates.MarkRejected(ctx, id, reason) })
}

// Convert конвертирует принятую смету в счёт.
// Создание счёта, копирование позиций и перевод сметы в converted
// происходят атомарно, частичная конвертация невозможна.
func (s *EstimateService) Convert(ctx context.Context, contractorID, id uuid.UUID) (*dto.ConvertEstimateResponse, error) {
	estimate, err := s.estimates.GetWithItems(ctx, id)
	if err != nil {
		return nil, mapEstimateError(err)
	}
	if estimate.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}

	from := valueobject.EstimateStatus(estimate.Status)
	if !from.CanTransitionTo(valueobject.EstimateStatusConverted) {
		return nil, invalidTransition(estimate.Status, "конвертировать можно только принятую смету")
	}

	now := time.Now()
	invoice := &models.Invoice{
		ContractorID: estimate.ContractorID,
		ClientID:     estimate.ClientID,
		ProjectID:    estimate.ProjectID,
		EstimateID:   &estimate.ID,
		Status:       models.InvoiceStatusPending,
		Subtotal:     estimate.Subtotal,
		Tax:          estimate.Tax,
		Discount:     estimate.Discount,
		Total:        estimate.Total,
		IssuedAt:     now,
		DueDate:      now.AddDate(0, 0, s.invoiceDueDays),
		Notes:        estimate.Notes,
		Items:        copyEstimateItems(estimate.Items),
	}

	_, err = withDocumentNumber(ctx, s.invoicePrefix, contractorID, s.invoices.NumberExists,
		func(ctx context.Context, number string) error {
			invoice.Number = number
			return s.invoices.CreateFromEstimate(ctx, estimate, invoice)
		})
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, invalidTransition(estimate.Status, "смета уже изменила статус")
		}
		return nil, err
	}

	s.notify(contractorID, "estimate.converted", map[string]interface{}{
		"estimate_id":    estimate.ID,
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.Number,
	})

	return &dto.ConvertEstimateResponse{Estimate: estimate, Invoice: invoice}, nil
}

// Delete удаляет смету. Допустимо только для черновиков и отклонённых.
func (s *EstimateService) Delete(ctx context.Context, contractorID, id uuid.UUID) error {
	estimate, err := s.estimates.GetByID(ctx, id)
	if err != nil {
		return mapEstimateError(err)
	}
	if estimate.ContractorID != contractorID {
		return apperror.ErrForbidden
	}

	if err := s.estimates.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return invalidTransition(estimate.Status, "удалить можно только черновик или отклонённую смету")
		}
		return err
	}
	return nil
}

// transition выполняет общий сценарий смены статуса сметы.
func (s *EstimateService) transition(ctx context.Context, contractorID, id uuid.UUID, target valueobject.EstimateStatus, action, event string, apply func(context.Context) (*models.Estimate, error)) (*models.Estimate, error) {
	current, err := s.estimates.GetByID(ctx, id)
	if err != nil {
		return nil, mapEstimateError(err)
	}
	if current.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}

	from := valueobject.EstimateStatus(current.Status)
	if !from.CanTransitionTo(target) {
		return nil, invalidTransition(current.Status, "переход в статус "+string(target)+" недопустим")
	}

	estimate, err := apply(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, invalidTransition(current.Status, "смета уже изменила статус")
		}
		return nil, err
	}

	s.audit(estimate.ID, contractorID, action,
		map[string]interface{}{"status": current.Status},
		map[string]interface{}{"status": estimate.Status})
	s.notify(contractorID, event, map[string]interface{}{
		"estimate_id": estimate.ID,
		"number":      estimate.Number,
		"status":      estimate.Status,
	})

	return estimate, nil
}

// buildEstimate собирает смету из запроса с серверным расчётом итогов.
func (s *EstimateService) buildEstimate(contractorID uuid.UUID, clientID string, projectID *string, tax, discount string, notes *string, items []dto.LineItemRequest) (*models.Estimate, error) {
	client, err := uuid.Parse(clientID)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный идентификатор клиента")
	}

	var project *uuid.UUID
	if projectID != nil {
		parsed, err := uuid.Parse(*projectID)
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный идентификатор проекта")
		}
		project = &parsed
	}

	parsed, subtotal, err := parseLineItems(items)
	if err != nil {
		return nil, err
	}

	taxValue, err := parseMoney(tax, "tax")
	if err != nil {
		return nil, err
	}
	discountValue, err := parseMoney(discount, "discount")
	if err != nil {
		return nil, err
	}

	totals, err := valueobject.NewTotals(subtotal, taxValue, discountValue)
	if err != nil {
		return nil, err
	}

	estimate := &models.Estimate{
		ContractorID: contractorID,
		ClientID:     client,
		ProjectID:    project,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Discount:     totals.Discount,
		Total:        totals.Total,
		Notes:        notes,
		Items:        make([]models.EstimateLineItem, 0, len(parsed)),
	}
	for _, item := range parsed {
		estimate.Items = append(estimate.Items, models.EstimateLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
			Notes:       item.Notes,
		})
	}

	return estimate, nil
}

// audit пишет запись журнала вне транзакции. Ошибка не прерывает операцию.
func (s *EstimateService) audit(estimateID, contractorID uuid.UUID, action string, oldValue, newValue interface{}) {
	if err := s.history.Add(context.Background(), models.HistoryEntityEstimate, estimateID, &contractorID, action, oldValue, newValue); err != nil {
		s.logger.WithError(err).Warn("не удалось записать журнал аудита сметы")
	}
}

// notify отправляет уведомление в фоне, не блокируя запрос.
func (s *EstimateService) notify(contractorID uuid.UUID, event string, data interface{}) {
	goroutine.SafeGo(func() {
		if err := s.notifier.CreateNotificationForWS(context.Background(), contractorID, event, data); err != nil {
			s.logger.WithError(err).Warn("не удалось отправить уведомление")
		}
	})
}

// copyEstimateItems переносит позиции сметы в позиции счёта.
func copyEstimateItems(items []models.EstimateLineItem) []models.InvoiceLineItem {
	copied := make([]models.InvoiceLineItem, 0, len(items))
	for _, item := range items {
		copied = append(copied, models.InvoiceLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
			Notes:       item.Notes,
		})
	}
	return copied
}

// invalidTransition формирует ошибку недопустимого перехода с текущим статусом.
func invalidTransition(current, message string) *apperror.AppError {
	return apperror.New(apperror.ErrCodeInvalidTransition, message).
		WithDetails(map[string]interface{}{"current_status": current})
}

// mapEstimateError переводит ошибки репозитория смет в ошибки API.
func mapEstimateError(err error) error {
	if errors.Is(err, repository.ErrEstimateNotFound) {
		return apperror.ErrEstimateNotFound
	}
	return err
}

// normalizePage приводит параметры пагинации к допустимым значениям.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
