package dto

import (
	"github.com/shopspring/decimal"

	"github.com/smetapro/contractor-backend/internal/models"
)

// PaymentTotals содержит сводку баланса счёта после платёжной операции.
type PaymentTotals struct {
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Remaining   decimal.Decimal `json:"remaining"`
	PaidPercent decimal.Decimal `json:"paid_percent"`
}

// RecordPaymentResponse возвращается после записи платежа.
// Warning заполняется, когда платёж прошёл, но триггер жизненного
// цикла проекта не отработал.
type RecordPaymentResponse struct {
	Invoice *models.Invoice `json:"invoice"`
	Payment *models.Payment `json:"payment"`
	Totals  PaymentTotals   `json:"totals"`
	Warning string          `json:"warning,omitempty"`
}

// ReversePaymentResponse возвращается после сторнирования платежа.
type ReversePaymentResponse struct {
	Invoice *models.Invoice `json:"invoice"`
	Payment *models.Payment `json:"payment"`
	Totals  PaymentTotals   `json:"totals"`
}

// RecalculateResponse возвращается после пересчёта баланса счёта.
type RecalculateResponse struct {
	Invoice *models.Invoice `json:"invoice"`
	Changed bool            `json:"changed"`
	Totals  PaymentTotals   `json:"totals"`
}

// ConvertEstimateResponse возвращается после конвертации сметы в счёт.
type ConvertEstimateResponse struct {
	Estimate *models.Estimate `json:"estimate"`
	Invoice  *models.Invoice  `json:"invoice"`
}

// ListResponse - универсальная обёртка для списков с пагинацией.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// UnreadCountResponse возвращает количество непрочитанных уведомлений.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
