package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smetapro/contractor-backend/internal/http/middleware"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository"
	"github.com/smetapro/contractor-backend/internal/service"
)

type ledgerMock struct {
	mock.Mock
}

func (m *ledgerMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *ledgerMock) RecordPayment(ctx context.Context, invoiceID uuid.UUID, payment *models.Payment) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *ledgerMock) ReversePayment(ctx context.Context, invoiceID, paymentID uuid.UUID, reason string) (*models.Invoice, *models.Payment, error) {
	args := m.Called(ctx, invoiceID, paymentID, reason)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).(*models.Payment), args.Error(2)
}

func (m *ledgerMock) Recalculate(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, bool, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Bool(1), args.Error(2)
}

type paymentsStub struct{}

func (paymentsStub) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	return []models.Payment{}, nil
}

type triggerStub struct{}

func (triggerStub) HandlePaymentRecorded(ctx context.Context, invoice *models.Invoice) error {
	return nil
}

type notifierStub struct{}

func (notifierStub) CreateNotificationForWS(ctx context.Context, contractorID uuid.UUID, event string, data interface{}) error {
	return nil
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newPaymentRouter собирает платёжные маршруты как в боевом роутере.
// contractorID == nil имитирует запрос без авторизации.
func newPaymentRouter(ledger *ledgerMock, contractorID *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewPaymentService(ledger, paymentsStub{}, triggerStub{}, notifierStub{}, silentLogger())
	h := NewPaymentHandler(svc)

	r := gin.New()
	r.Use(middleware.ErrorHandler())

	api := r.Group("/api")
	if contractorID != nil {
		id := *contractorID
		api.Use(func(c *gin.Context) {
			c.Set(middleware.ContextContractorIDKey, id)
			c.Next()
		})
	}

	api.POST("/invoices/:id/payments", middleware.UUIDValidator("id"), h.Record)
	api.POST("/invoices/:id/payments/:paymentId/reverse",
		middleware.UUIDValidator("id"), middleware.UUIDValidator("paymentId"), h.Reverse)
	api.POST("/invoices/:id/recalculate", middleware.UUIDValidator("id"), h.Recalculate)

	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_Record_Unauthorized(t *testing.T) {
	r := newPaymentRouter(new(ledgerMock), nil)

	w := postJSON(r, "/api/invoices/"+uuid.New().String()+"/payments", gin.H{
		"amount": "100",
		"method": "card",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Record_InvalidUUID(t *testing.T) {
	contractorID := uuid.New()
	r := newPaymentRouter(new(ledgerMock), &contractorID)

	w := postJSON(r, "/api/invoices/not-a-uuid/payments", gin.H{
		"amount": "100",
		"method": "card",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Record_MissingBody(t *testing.T) {
	contractorID := uuid.New()
	r := newPaymentRouter(new(ledgerMock), &contractorID)

	w := postJSON(r, "/api/invoices/"+uuid.New().String()+"/payments", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Record_Success(t *testing.T) {
	contractorID := uuid.New()
	invoiceID := uuid.New()
	ledger := new(ledgerMock)
	r := newPaymentRouter(ledger, &contractorID)

	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPending,
		Total:        decimal.NewFromInt(1000),
	}
	updated := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(400),
	}

	ledger.On("GetByID", mock.Anything, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", mock.Anything, invoiceID, mock.AnythingOfType("*models.Payment")).Return(updated, nil)

	w := postJSON(r, "/api/invoices/"+invoiceID.String()+"/payments", gin.H{
		"amount": "400",
		"method": "card",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Invoice struct {
			Status string `json:"status"`
		} `json:"invoice"`
		Totals struct {
			Remaining string `json:"remaining"`
		} `json:"totals"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, resp.Invoice.Status)
	assert.Equal(t, "600", resp.Totals.Remaining)
}

func TestPaymentHandler_Record_OverpaymentConflict(t *testing.T) {
	contractorID := uuid.New()
	invoiceID := uuid.New()
	ledger := new(ledgerMock)
	r := newPaymentRouter(ledger, &contractorID)

	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(900),
	}

	ledger.On("GetByID", mock.Anything, invoiceID).Return(invoice, nil)
	ledger.On("RecordPayment", mock.Anything, invoiceID, mock.AnythingOfType("*models.Payment")).Return(nil, &repository.OverpaymentError{
		AmountPaid: decimal.NewFromInt(900),
		Total:      decimal.NewFromInt(1000),
		Remaining:  decimal.NewFromInt(100),
	})

	w := postJSON(r, "/api/invoices/"+invoiceID.String()+"/payments", gin.H{
		"amount": "500",
		"method": "card",
	})

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Code    string `json:"code"`
		Details struct {
			Remaining string `json:"remaining"`
		} `json:"details"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OVERPAYMENT", resp.Code)
	assert.Equal(t, "100", resp.Details.Remaining)
}

func TestPaymentHandler_Reverse_MissingReason(t *testing.T) {
	contractorID := uuid.New()
	r := newPaymentRouter(new(ledgerMock), &contractorID)

	w := postJSON(r, "/api/invoices/"+uuid.New().String()+"/payments/"+uuid.New().String()+"/reverse", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Code string `json:"code"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_REASON", resp.Code)
}

func TestPaymentHandler_Reverse_InvalidPaymentUUID(t *testing.T) {
	contractorID := uuid.New()
	r := newPaymentRouter(new(ledgerMock), &contractorID)

	w := postJSON(r, "/api/invoices/"+uuid.New().String()+"/payments/oops/reverse", gin.H{
		"reason": "ошибка оператора",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Recalculate_Success(t *testing.T) {
	contractorID := uuid.New()
	invoiceID := uuid.New()
	ledger := new(ledgerMock)
	r := newPaymentRouter(ledger, &contractorID)

	invoice := &models.Invoice{
		ID:           invoiceID,
		ContractorID: contractorID,
		Status:       models.InvoiceStatusPartiallyPaid,
		Total:        decimal.NewFromInt(1000),
		AmountPaid:   decimal.NewFromInt(400),
	}

	ledger.On("GetByID", mock.Anything, invoiceID).Return(invoice, nil)
	ledger.On("Recalculate", mock.Anything, invoiceID).Return(invoice, true, nil)

	w := postJSON(r, "/api/invoices/"+invoiceID.String()+"/recalculate", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Changed bool `json:"changed"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Changed)
}
