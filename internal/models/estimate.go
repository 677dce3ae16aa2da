package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estimate описывает смету, предложенную клиенту.
type Estimate struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ContractorID    uuid.UUID       `db:"contractor_id" json:"contractor_id"`
	ClientID        uuid.UUID       `db:"client_id" json:"client_id"`
	ProjectID       *uuid.UUID      `db:"project_id" json:"project_id,omitempty"`
	Number          string          `db:"number" json:"number"`
	Status          string          `db:"status" json:"status"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax             decimal.Decimal `db:"tax" json:"tax"`
	Discount        decimal.Decimal `db:"discount" json:"discount"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	AcceptedAt      *time.Time      `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	Items   []EstimateLineItem `json:"items,omitempty"`
	History []LedgerHistory    `json:"history,omitempty"`
}

// EstimateLineItem описывает позицию сметы.
// Amount всегда равен Quantity * UnitPrice и вычисляется на сервере.
type EstimateLineItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EstimateID  uuid.UUID       `db:"estimate_id" json:"estimate_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	SortOrder   int             `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
