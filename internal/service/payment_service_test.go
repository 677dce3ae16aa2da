package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

type mockInvoiceLedger struct {
	mock.Mock
}

func (m *mockInvoiceLedger) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceLedger) RecordPayment(ctx context.Context, invoiceID uuid.UUID, payment *models.Payment) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceLedger) ReversePayment(ctx context.Context, invoiceID, paymentID uuid.UUID, reason string) (*models.Invoice, *models.Payment, error) {
	args := m.Called(ctx, invoiceID, paymentID, reason)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).(*models.Payment), args.Error(2)
}

func (m *mockInvoiceLedger) Recalculate(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, bool, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Bool(1), args.Error(2)
}

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]models.Payment), args.Error(1)
}

type mockProjectTrigger struct {
	mock.Mock
}

func (m *mockProjectTrigger) HandlePaymentRecorded(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// stubNotifier не использует testify mock: уведомления уходят из фоновой
// горутины, и проверка ожиданий гонялась бы с её завершением.
type stubNotifier struct{}

func (stubNotifier) CreateNotificationForWS(ctx context.Context, contractorID uuid.UUID, event string, data interface{}) error {
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestPaymentService(ledger *mockInvoiceLedger, payments *mockPaymentStore, trigger *mockProjectTrigger) *PaymentService {
	return NewPaymentService(ledger, payments, trigger, stubNotifier{}, quietLogger())
}

func TestPaymentService_RecordPayment_Success(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	trigger := new(mockProjectTrigger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), trigger)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPending,
		Total:        decimal.NewFromInt(8750),
	}
	updated := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(8750),
		AmountPaid:   decimal.NewFromInt(3000),
	}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", ctx, invoiceID, mock.AnythingOfType("*models.Payment")).Return(updated, nil)
	trigger.On("HandlePaymentRecorded", ctx, updated).Return(nil)

	resp, err := svc.RecordPayment(ctx, contractorID, invoiceID, dto.RecordPaymentRequest{
		Amount: "3000",
		Method: "card",
	})

	assert.NoError(t, err)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, resp.Invoice.Status)
	assert.True(t, resp.Totals.AmountPaid.Equal(decimal.NewFromInt(3000)))
	assert.True(t, resp.Totals.Remaining.Equal(decimal.NewFromInt(5750)))
	assert.True(t, resp.Totals.PaidPercent.Equal(decimal.NewFromFloat(34.29)))
	ledger.AssertExpectations(t)
	trigger.AssertExpectations(t)
}

func TestPaymentService_RecordPayment_Overpayment(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(8750),
		AmountPaid:   decimal.NewFromInt(8000),
	}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", ctx, invoiceID, mock.AnythingOfType("*models.Payment")).Return(nil, &repository.OverpaymentError{
		AmountPaid: decimal.NewFromInt(8000),
		Total:      decimal.NewFromInt(8750),
		Remaining:  decimal.NewFromInt(750),
	})

	_, err := svc.RecordPayment(ctx, contractorID, invoiceID, dto.RecordPaymentRequest{
		Amount: "1000",
		Method: "card",
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeOverpayment))

	// Ответ несёт актуальные числа для коррекции запроса
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, decimal.NewFromInt(750), appErr.Details["remaining"])
	assert.Equal(t, decimal.NewFromInt(8750), appErr.Details["total"])
}

func TestPaymentService_RecordPayment_CancelledInvoice(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, ContractorID: contractorID, Status: models.InvoiceStatusCancelled}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", ctx, invoiceID, mock.AnythingOfType("*models.Payment")).Return(nil, repository.ErrInvoiceCancelled)

	_, err := svc.RecordPayment(ctx, contractorID, invoiceID, dto.RecordPaymentRequest{
		Amount: "100",
		Method: "cash",
	})

	assert.True(t, apperror.IsCode(err, apperror.ErrCodeInvoiceCancelled))
}

func TestPaymentService_RecordPayment_InvalidAmount(t *testing.T) {
	svc := newTestPaymentService(new(mockInvoiceLedger), new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, uuid.New(), uuid.New(), dto.RecordPaymentRequest{Amount: "0", Method: "card"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RecordPayment(ctx, uuid.New(), uuid.New(), dto.RecordPaymentRequest{Amount: "-50", Method: "card"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RecordPayment(ctx, uuid.New(), uuid.New(), dto.RecordPaymentRequest{Amount: "abc", Method: "card"})
	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_RecordPayment_TriggerFailureIsWarning(t *testing.T) {
	// Ошибка триггера проекта не откатывает платёж, а возвращается предупреждением.
	ledger := new(mockInvoiceLedger)
	trigger := new(mockProjectTrigger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), trigger)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPending,
		Total:        decimal.NewFromInt(1000),
	}
	updated := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(1000),
	}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", ctx, invoiceID, mock.AnythingOfType("*models.Payment")).Return(updated, nil)
	trigger.On("HandlePaymentRecorded", ctx, updated).Return(errors.New("projects unavailable"))

	resp, err := svc.RecordPayment(ctx, contractorID, invoiceID, dto.RecordPaymentRequest{
		Amount: "1000",
		Method: "transfer",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Warning)
	assert.Equal(t, models.InvoiceStatusPaid, resp.Invoice.Status)
}

func TestPaymentService_RecordPayment_Forbidden(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, ContractorID: uuid.New(), Total: decimal.NewFromInt(100)}
	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)

	_, err := svc.RecordPayment(ctx, uuid.New(), invoiceID, dto.RecordPaymentRequest{Amount: "10", Method: "card"})
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeForbidden))
}

func TestPaymentService_ReversePayment_MissingReason(t *testing.T) {
	svc := newTestPaymentService(new(mockInvoiceLedger), new(mockPaymentStore), new(mockProjectTrigger))

	_, err := svc.ReversePayment(context.Background(), uuid.New(), uuid.New(), uuid.New(), "")
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeMissingReason))
}

func TestPaymentService_ReversePayment_Success(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	paymentID := uuid.New()

	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(1000),
	}
	reverted := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPending,
		Total:        decimal.NewFromInt(1000),
	}
	payment := &models.Payment{ID: paymentID, InvoiceID: invoiceID, Status: models.PaymentStatusReversed}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("ReversePayment", ctx, invoiceID, paymentID, "ошибка оператора").Return(reverted, payment, nil)

	resp, err := svc.ReversePayment(ctx, contractorID, invoiceID, paymentID, "ошибка оператора")
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, resp.Invoice.Status)
	assert.Equal(t, models.PaymentStatusReversed, resp.Payment.Status)
	assert.True(t, resp.Totals.Remaining.Equal(decimal.NewFromInt(1000)))
}

func TestPaymentService_ReversePayment_AlreadyReversed(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	paymentID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, ContractorID: contractorID}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("ReversePayment", ctx, invoiceID, paymentID, "дубль").Return(nil, nil, repository.ErrPaymentAlreadyReversed)

	_, err := svc.ReversePayment(ctx, contractorID, invoiceID, paymentID, "дубль")
	assert.True(t, apperror.IsCode(err, apperror.ErrCodePaymentReversed))
}

func TestPaymentService_Recalculate(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	svc := newTestPaymentService(ledger, new(mockPaymentStore), new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(400),
	}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	ledger.On("Recalculate", ctx, invoiceID).Return(invoice, true, nil)

	resp, err := svc.Recalculate(ctx, contractorID, invoiceID)
	assert.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.True(t, resp.Totals.Remaining.Equal(decimal.NewFromInt(600)))
}

func TestPaymentService_ListPayments(t *testing.T) {
	ledger := new(mockInvoiceLedger)
	payments := new(mockPaymentStore)
	svc := newTestPaymentService(ledger, payments, new(mockProjectTrigger))
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, ContractorID: contractorID}

	ledger.On("GetByID", ctx, invoiceID).Return(invoice, nil)
	payments.On("ListByInvoice", ctx, invoiceID).Return([]models.Payment{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	list, err := svc.ListPayments(ctx, contractorID, invoiceID)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
}
