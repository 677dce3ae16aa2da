package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smetapro/contractor-backend/internal/domain/valueobject"
	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
)

// InvoiceStore описывает взаимодействие сервиса с хранилищем счетов.
type InvoiceStore interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Invoice, error)
	Cancel(ctx context.Context, invoiceID uuid.UUID, notes *string) (*models.Invoice, error)
	Delete(ctx context.Context, invoiceID uuid.UUID) error
	NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error)
}

// InvoiceService содержит бизнес-логику счетов вне платёжных операций.
type InvoiceService struct {
	invoices InvoiceStore
	history  HistoryStore
	notifier Notifier
	logger   *logrus.Logger

	invoicePrefix  string
	invoiceDueDays int
}

// NewInvoiceService создаёт сервис счетов.
func NewInvoiceService(invoices InvoiceStore, history HistoryStore, notifier Notifier, logger *logrus.Logger, invoicePrefix string, invoiceDueDays int) *InvoiceService {
	return &InvoiceService{
		invoices:       invoices,
		history:        history,
		notifier:       notifier,
		logger:         logger,
		invoicePrefix:  invoicePrefix,
		invoiceDueDays: invoiceDueDays,
	}
}

// Create выставляет счёт напрямую, без сметы.
func (s *InvoiceService) Create(ctx context.Context, contractorID uuid.UUID, req dto.CreateInvoiceRequest) (*models.Invoice, error) {
	client, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный идентификатор клиента")
	}

	var project *uuid.UUID
	if req.ProjectID != nil {
		parsed, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный идентификатор проекта")
		}
		project = &parsed
	}

	parsed, subtotal, err := parseLineItems(req.Items)
	if err != nil {
		return nil, err
	}

	taxValue, err := parseMoney(req.Tax, "tax")
	if err != nil {
		return nil, err
	}
	discountValue, err := parseMoney(req.Discount, "discount")
	if err != nil {
		return nil, err
	}

	totals, err := valueobject.NewTotals(subtotal, taxValue, discountValue)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice := &models.Invoice{
		ContractorID: contractorID,
		ClientID:     client,
		ProjectID:    project,
		Status:       models.InvoiceStatusPending,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Discount:     totals.Discount,
		Total:        totals.Total,
		IssuedAt:     now,
		DueDate:      now.AddDate(0, 0, s.invoiceDueDays),
		Notes:        req.Notes,
		Items:        make([]models.InvoiceLineItem, 0, len(parsed)),
	}
	for _, item := range parsed {
		invoice.Items = append(invoice.Items, models.InvoiceLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
			Notes:       item.Notes,
		})
	}

	_, err = withDocumentNumber(ctx, s.invoicePrefix, contractorID, s.invoices.NumberExists,
		func(ctx context.Context, number string) error {
			invoice.Number = number
			return s.invoices.Create(ctx, invoice)
		})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// Get возвращает счёт с позициями, платежами и журналом изменений.
func (s *InvoiceService) Get(ctx context.Context, contractorID, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.GetWithDetails(ctx, id)
	if err != nil {
		return nil, mapInvoiceError(err)
	}
	if invoice.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}

	history, err := s.history.ListByEntity(ctx, models.HistoryEntityInvoice, id, 0)
	if err != nil {
		return nil, err
	}
	invoice.History = history

	return invoice, nil
}

// List возвращает счета подрядчика.
func (s *InvoiceService) List(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Invoice, error) {
	if status != "" {
		if _, ok := models.ValidInvoiceStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус счёта")
		}
	}
	limit, offset = normalizePage(limit, offset)
	return s.invoices.ListByContractor(ctx, contractorID, status, limit, offset)
}

// Cancel отменяет счёт. Оплаченный счёт отменить нельзя.
func (s *InvoiceService) Cancel(ctx context.Context, contractorID, id uuid.UUID, notes *string) (*models.Invoice, error) {
	current, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, mapInvoiceError(err)
	}
	if current.ContractorID != contractorID {
		return nil, apperror.ErrForbidden
	}

	invoice, err := s.invoices.Cancel(ctx, id, notes)
	if err != nil {
		return nil, mapInvoiceError(err)
	}

	return invoice, nil
}

// Delete удаляет счёт без платежей.
func (s *InvoiceService) Delete(ctx context.Context, contractorID, id uuid.UUID) error {
	current, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return mapInvoiceError(err)
	}
	if current.ContractorID != contractorID {
		return apperror.ErrForbidden
	}

	if err := s.invoices.Delete(ctx, id); err != nil {
		return mapInvoiceError(err)
	}
	return nil
}
