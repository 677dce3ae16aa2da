package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project описывает проект подрядчика.
// В рамках платёжного ядра проект создаётся и продвигается по статусам
// триггером жизненного цикла; остальные поля принадлежат внешним модулям.
type Project struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	ContractorID uuid.UUID        `db:"contractor_id" json:"contractor_id"`
	ClientID     uuid.UUID        `db:"client_id" json:"client_id"`
	Name         string           `db:"name" json:"name"`
	Status       string           `db:"status" json:"status"`
	ServiceType  string           `db:"service_type" json:"service_type"`
	Budget       *decimal.Decimal `db:"budget" json:"budget,omitempty"`
	InvoiceID    *uuid.UUID       `db:"invoice_id" json:"invoice_id,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}
