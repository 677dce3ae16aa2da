package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerHistory хранит запись журнала аудита по смете или счёту.
type LedgerHistory struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EntityType   string          `db:"entity_type" json:"entity_type"`
	EntityID     uuid.UUID       `db:"entity_id" json:"entity_id"`
	ContractorID *uuid.UUID      `db:"contractor_id" json:"contractor_id,omitempty"`
	Action       string          `db:"action" json:"action"`
	OldValue     json.RawMessage `db:"old_value" json:"old_value,omitempty"`
	NewValue     json.RawMessage `db:"new_value" json:"new_value,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
