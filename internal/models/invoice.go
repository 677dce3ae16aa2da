package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice описывает счёт на оплату.
// AmountPaid и Status меняются только через платёжные операции
// (запись платежа, сторнирование, пересчёт баланса) либо явной отменой.
type Invoice struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ContractorID uuid.UUID       `db:"contractor_id" json:"contractor_id"`
	ClientID     uuid.UUID       `db:"client_id" json:"client_id"`
	ProjectID    *uuid.UUID      `db:"project_id" json:"project_id,omitempty"`
	EstimateID   *uuid.UUID      `db:"estimate_id" json:"estimate_id,omitempty"`
	Number       string          `db:"number" json:"number"`
	Status       string          `db:"status" json:"status"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax          decimal.Decimal `db:"tax" json:"tax"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	Total        decimal.Decimal `db:"total" json:"total"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	IssuedAt     time.Time       `db:"issued_at" json:"issued_at"`
	DueDate      time.Time       `db:"due_date" json:"due_date"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	CancelledAt  *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelNotes  *string         `db:"cancel_notes" json:"cancel_notes,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Items    []InvoiceLineItem `json:"items,omitempty"`
	Payments []Payment         `json:"payments,omitempty"`
	History  []LedgerHistory   `json:"history,omitempty"`
}

// InvoiceLineItem описывает позицию счёта, скопированную из сметы
// либо заданную при прямом выставлении счёта.
type InvoiceLineItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	InvoiceID   uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	SortOrder   int             `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
