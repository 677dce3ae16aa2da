package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smetapro/contractor-backend/internal/models"
)

// HistoryRepository ведёт журнал аудита смет и счетов.
// Записи внутри платёжных транзакций пишутся репозиторием счетов
// напрямую; здесь — записи вне транзакций и чтение журнала.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Add добавляет запись журнала. Значения сериализуются в JSON.
func (r *HistoryRepository) Add(ctx context.Context, entityType string, entityID uuid.UUID, contractorID *uuid.UUID, action string, oldValue, newValue interface{}) error {
	oldJSON, err := json.Marshal(oldValue)
	if err != nil {
		return fmt.Errorf("history repository: marshal old value %w", err)
	}
	newJSON, err := json.Marshal(newValue)
	if err != nil {
		return fmt.Errorf("history repository: marshal new value %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledger_history (entity_type, entity_id, contractor_id, action, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entityType, entityID, contractorID, action, oldJSON, newJSON)
	if err != nil {
		return fmt.Errorf("history repository: add %w", err)
	}
	return nil
}

// ListByEntity возвращает журнал сущности от новых записей к старым.
func (r *HistoryRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.LedgerHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	var history []models.LedgerHistory
	err := r.db.SelectContext(ctx, &history, `
		SELECT * FROM ledger_history
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("history repository: list %w", err)
	}
	return history, nil
}
