package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification описывает событие, отправленное подрядчику.
type Notification struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ContractorID uuid.UUID       `db:"contractor_id" json:"contractor_id"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	IsRead       bool            `db:"is_read" json:"is_read"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
