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

// InvoiceLedgerStore описывает платёжные операции над счетами.
type InvoiceLedgerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, payment *models.Payment) (*models.Invoice, error)
	ReversePayment(ctx context.Context, invoiceID, paymentID uuid.UUID, reason string) (*models.Invoice, *models.Payment, error)
	Recalculate(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, bool, error)
}

// PaymentStore читает платежи счёта.
type PaymentStore interface {
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)
}

// ProjectTrigger запускает жизненный цикл проекта после платежа.
type ProjectTrigger interface {
	HandlePaymentRecorded(ctx context.Context, invoice *models.Invoice) error
}

// PaymentService содержит бизнес-логику платёжного реестра.
type PaymentService struct {
	invoices InvoiceLedgerStore
	payments PaymentStore
	projects ProjectTrigger
	notifier Notifier
	logger   *logrus.Logger
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(invoices InvoiceLedgerStore, payments PaymentStore, projects ProjectTrigger, notifier Notifier, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		invoices: invoices,
		payments: payments,
		projects: projects,
		notifier: notifier,
		logger:   logger,
	}
}

// RecordPayment записывает платёж по счёту.
// После успешной записи синхронно вызывается триггер жизненного цикла
// проекта; его ошибка не откатывает платёж, а возвращается предупреждением.
func (s *PaymentService) RecordPayment(ctx context.Context, contractorID, invoiceID uuid.UUID, req dto.RecordPaymentRequest) (*dto.RecordPaymentResponse, error) {
	amount, err := parseMoney(req.Amount, "amount")
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа должна быть положительной")
	}
	if req.Method == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "способ оплаты обязателен")
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.PaidAt)
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректная дата платежа, ожидается RFC3339")
		}
		paidAt = parsed
	}

	if err := s.checkOwnership(ctx, contractorID, invoiceID); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Amount: amount,
		Method: req.Method,
		PaidAt: paidAt,
		Notes:  req.Notes,
	}

	invoice, err := s.invoices.RecordPayment(ctx, invoiceID, payment)
	if err != nil {
		return nil, mapInvoiceError(err)
	}

	warning := ""
	if err := s.projects.HandlePaymentRecorded(ctx, invoice); err != nil {
		s.logger.WithError(err).WithField("invoice_id", invoice.ID).
			Warn("платёж записан, но триггер проекта не отработал")
		warning = "платёж записан, но обновить проект не удалось"
	}

	s.notifyPayment(contractorID, "invoice.payment_recorded", invoice, payment)

	return &dto.RecordPaymentResponse{
		Invoice: invoice,
		Payment: payment,
		Totals:  buildTotals(invoice),
		Warning: warning,
	}, nil
}

// ReversePayment сторнирует платёж. Причина обязательна.
func (s *PaymentService) ReversePayment(ctx context.Context, contractorID, invoiceID, paymentID uuid.UUID, reason string) (*dto.ReversePaymentResponse, error) {
	if reason == "" {
		return nil, apperror.ErrMissingReason
	}

	if err := s.checkOwnership(ctx, contractorID, invoiceID); err != nil {
		return nil, err
	}

	invoice, payment, err := s.invoices.ReversePayment(ctx, invoiceID, paymentID, reason)
	if err != nil {
		return nil, mapInvoiceError(err)
	}

	s.notifyPayment(contractorID, "invoice.payment_reversed", invoice, payment)

	return &dto.ReversePaymentResponse{
		Invoice: invoice,
		Payment: payment,
		Totals:  buildTotals(invoice),
	}, nil
}

// Recalculate восстанавливает баланс счёта из суммы активных платежей.
func (s *PaymentService) Recalculate(ctx context.Context, contractorID, invoiceID uuid.UUID) (*dto.RecalculateResponse, error) {
	if err := s.checkOwnership(ctx, contractorID, invoiceID); err != nil {
		return nil, err
	}

	invoice, changed, err := s.invoices.Recalculate(ctx, invoiceID)
	if err != nil {
		return nil, mapInvoiceError(err)
	}

	return &dto.RecalculateResponse{
		Invoice: invoice,
		Changed: changed,
		Totals:  buildTotals(invoice),
	}, nil
}

// ListPayments возвращает все платежи счёта, включая сторнированные.
func (s *PaymentService) ListPayments(ctx context.Context, contractorID, invoiceID uuid.UUID) ([]models.Payment, error) {
	if err := s.checkOwnership(ctx, contractorID, invoiceID); err != nil {
		return nil, err
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}

// checkOwnership проверяет принадлежность счёта подрядчику.
func (s *PaymentService) checkOwnership(ctx context.Context, contractorID, invoiceID uuid.UUID) error {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return mapInvoiceError(err)
	}
	if invoice.ContractorID != contractorID {
		return apperror.ErrForbidden
	}
	return nil
}

// notifyPayment отправляет уведомление о платёжном событии в фоне.
func (s *PaymentService) notifyPayment(contractorID uuid.UUID, event string, invoice *models.Invoice, payment *models.Payment) {
	goroutine.SafeGo(func() {
		err := s.notifier.CreateNotificationForWS(context.Background(), contractorID, event, map[string]interface{}{
			"invoice_id":  invoice.ID,
			"number":      invoice.Number,
			"status":      invoice.Status,
			"payment_id":  payment.ID,
			"amount":      payment.Amount,
			"amount_paid": invoice.AmountPaid,
		})
		if err != nil {
			s.logger.WithError(err).Warn("не удалось отправить уведомление")
		}
	})
}

// buildTotals собирает сводку баланса счёта для ответа.
func buildTotals(invoice *models.Invoice) dto.PaymentTotals {
	return dto.PaymentTotals{
		AmountPaid:  invoice.AmountPaid,
		Remaining:   valueobject.RemainingBalance(invoice.Total, invoice.AmountPaid),
		PaidPercent: valueobject.PaidPercent(invoice.Total, invoice.AmountPaid),
	}
}

// mapInvoiceError переводит ошибки репозитория счетов в ошибки API.
// Ошибка переплаты дополняется актуальными числами, чтобы клиент мог
// скорректировать сумму без повторного чтения счёта.
func mapInvoiceError(err error) error {
	var overpayment *repository.OverpaymentError
	if errors.As(err, &overpayment) {
		return apperror.New(apperror.ErrCodeOverpayment, "платёж превышает остаток по счёту").
			WithDetails(map[string]interface{}{
				"amount_paid": overpayment.AmountPaid,
				"total":       overpayment.Total,
				"remaining":   overpayment.Remaining,
			})
	}

	switch {
	case errors.Is(err, repository.ErrInvoiceNotFound):
		return apperror.ErrInvoiceNotFound
	case errors.Is(err, repository.ErrInvoiceCancelled):
		return apperror.ErrInvoiceCancelled
	case errors.Is(err, repository.ErrInvoiceAlreadyCancelled):
		return apperror.ErrAlreadyCancelled
	case errors.Is(err, repository.ErrInvoiceAlreadyPaid):
		return apperror.ErrAlreadyPaid
	case errors.Is(err, repository.ErrPaymentNotFound):
		return apperror.ErrPaymentNotFound
	case errors.Is(err, repository.ErrPaymentMismatch):
		return apperror.ErrPaymentMismatch
	case errors.Is(err, repository.ErrPaymentAlreadyReversed):
		return apperror.ErrPaymentReversed
	case errors.Is(err, repository.ErrInvoiceHasPayments):
		return apperror.New(apperror.ErrCodeConflict, "счёт с платежами нельзя удалить")
	}
	return err
}
