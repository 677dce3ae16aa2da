package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
	"github.com/smetapro/contractor-backend/internal/repository"
)

type mockInvoiceStore struct {
	mock.Mock
}

func (m *mockInvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Invoice, error) {
	args := m.Called(ctx, contractorID, status, limit, offset)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) Cancel(ctx context.Context, invoiceID uuid.UUID, notes *string) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	args := m.Called(ctx, invoiceID)
	return args.Error(0)
}

func (m *mockInvoiceStore) NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, contractorID, number)
	return args.Bool(0), args.Error(1)
}

func newTestInvoiceService(invoices *mockInvoiceStore) *InvoiceService {
	return NewInvoiceService(invoices, new(mockHistoryStore), stubNotifier{}, quietLogger(), "INV", 15)
}

func TestInvoiceService_Create_ComputesTotals(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	contractorID := uuid.New()
	invoices.On("NumberExists", ctx, contractorID, mock.AnythingOfType("string")).Return(false, nil)
	invoices.On("Create", ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	invoice, err := svc.Create(ctx, contractorID, dto.CreateInvoiceRequest{
		ClientID: uuid.New().String(),
		Tax:      "100",
		Items: []dto.LineItemRequest{
			{Description: "Монтаж проводки", Quantity: "3", UnitPrice: "1500"},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
	assert.Contains(t, invoice.Number, "INV-")
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(4500)))
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(4600)))
	assert.True(t, invoice.AmountPaid.IsZero())
	assert.Equal(t, invoice.IssuedAt.AddDate(0, 0, 15), invoice.DueDate)
}

func TestInvoiceService_Create_RetriesOnDuplicateNumber(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	contractorID := uuid.New()
	invoices.On("NumberExists", ctx, contractorID, mock.AnythingOfType("string")).Return(false, nil)
	invoices.On("Create", ctx, mock.AnythingOfType("*models.Invoice")).Return(repository.ErrDuplicateNumber).Once()
	invoices.On("Create", ctx, mock.AnythingOfType("*models.Invoice")).Return(nil).Once()

	invoice, err := svc.Create(ctx, contractorID, dto.CreateInvoiceRequest{
		ClientID: uuid.New().String(),
		Items:    []dto.LineItemRequest{{Description: "Работы", Quantity: "1", UnitPrice: "100"}},
	})

	assert.NoError(t, err)
	assert.Contains(t, invoice.Number, "INV-")
	invoices.AssertNumberOfCalls(t, "Create", 2)
}

func TestInvoiceService_Get_IncludesHistory(t *testing.T) {
	invoices := new(mockInvoiceStore)
	history := new(mockHistoryStore)
	svc := NewInvoiceService(invoices, history, stubNotifier{}, quietLogger(), "INV", 15)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoices.On("GetWithDetails", ctx, invoiceID).Return(&models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
	}, nil)
	history.On("ListByEntity", ctx, models.HistoryEntityInvoice, invoiceID, 0).Return([]models.LedgerHistory{
		{Action: models.HistoryActionPayment},
		{Action: models.HistoryActionCreated},
	}, nil)

	invoice, err := svc.Get(ctx, contractorID, invoiceID)
	assert.NoError(t, err)
	assert.Len(t, invoice.History, 2)
	assert.Equal(t, models.HistoryActionPayment, invoice.History[0].Action)
}

func TestInvoiceService_Cancel_AlreadyPaid(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoices.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPaid,
	}, nil)
	invoices.On("Cancel", ctx, invoiceID, mock.Anything).Return(nil, repository.ErrInvoiceAlreadyPaid)

	_, err := svc.Cancel(ctx, contractorID, invoiceID, nil)
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeAlreadyPaid))
}

func TestInvoiceService_Cancel_AlreadyCancelled(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoices.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusCancelled,
	}, nil)
	invoices.On("Cancel", ctx, invoiceID, mock.Anything).Return(nil, repository.ErrInvoiceAlreadyCancelled)

	_, err := svc.Cancel(ctx, contractorID, invoiceID, nil)
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeAlreadyCancelled))
}

func TestInvoiceService_Delete_WithPayments(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	contractorID := uuid.New()
	invoiceID := uuid.New()
	invoices.On("GetByID", ctx, invoiceID).Return(&models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
	}, nil)
	invoices.On("Delete", ctx, invoiceID).Return(repository.ErrInvoiceHasPayments)

	err := svc.Delete(ctx, contractorID, invoiceID)
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeConflict))
}

func TestInvoiceService_Get_NotFound(t *testing.T) {
	invoices := new(mockInvoiceStore)
	svc := newTestInvoiceService(invoices)
	ctx := context.Background()

	invoiceID := uuid.New()
	invoices.On("GetWithDetails", ctx, invoiceID).Return(nil, repository.ErrInvoiceNotFound)

	_, err := svc.Get(ctx, uuid.New(), invoiceID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInvoiceService_List_InvalidStatus(t *testing.T) {
	svc := newTestInvoiceService(new(mockInvoiceStore))

	_, err := svc.List(context.Background(), uuid.New(), "overdue", 20, 0)
	assert.True(t, apperror.IsValidation(err))
}
