package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment описывает платёж по счёту.
// Записи не удаляются: единственная допустимая мутация — сторнирование,
// которое переводит платёж в статус reversed и сохраняет причину.
type Payment struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	InvoiceID      uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Method         string          `db:"method" json:"method"`
	PaidAt         time.Time       `db:"paid_at" json:"paid_at"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	Status         string          `db:"status" json:"status"`
	ReversalReason *string         `db:"reversal_reason" json:"reversal_reason,omitempty"`
	ReversedAt     *time.Time      `db:"reversed_at" json:"reversed_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
