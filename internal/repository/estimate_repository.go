package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository/common"
)

var (
	ErrEstimateNotFound = errors.New("estimate not found")
	// ErrStateConflict возвращается, когда условное обновление статуса не
	// затронуло ни одной строки: статус изменился между чтением и записью.
	ErrStateConflict = errors.New("entity state changed concurrently")
	// ErrDuplicateNumber возвращается, когда вставка документа нарушила
	// уникальность номера: номер заняли между проверкой и вставкой.
	ErrDuplicateNumber = errors.New("document number already taken")
)

type EstimateRepository struct {
	db *sqlx.DB
}

func NewEstimateRepository(db *sqlx.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

const estimateColumns = `id, contractor_id, client_id, project_id, number, status,
	subtotal, tax, discount, total, notes, rejection_reason,
	accepted_at, rejected_at, created_at, updated_at`

// Create сохраняет смету вместе с позициями в одной транзакции.
func (r *EstimateRepository) Create(ctx context.Context, estimate *models.Estimate) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO estimates (contractor_id, client_id, project_id, number, status,
				subtotal, tax, discount, total, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at
		`, estimate.ContractorID, estimate.ClientID, estimate.ProjectID, estimate.Number,
			estimate.Status, estimate.Subtotal, estimate.Tax, estimate.Discount,
			estimate.Total, estimate.Notes,
		).Scan(&estimate.ID, &estimate.CreatedAt, &estimate.UpdatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrDuplicateNumber
			}
			return fmt.Errorf("estimate repository: create %w", err)
		}

		return insertEstimateItems(ctx, tx, estimate)
	})
}

// insertEstimateItems вставляет позиции сметы батчем.
func insertEstimateItems(ctx context.Context, tx *sqlx.Tx, estimate *models.Estimate) error {
	if len(estimate.Items) == 0 {
		return nil
	}

	inserter := common.NewBatchInserter(tx, `
		INSERT INTO estimate_line_items (id, estimate_id, description, quantity, unit_price, amount, notes, sort_order)
	`, 8, 100)

	now := time.Now()
	for i := range estimate.Items {
		item := &estimate.Items[i]
		item.ID = uuid.New()
		item.EstimateID = estimate.ID
		item.SortOrder = i
		item.CreatedAt = now
		if err := inserter.Add(ctx, item.ID, item.EstimateID, item.Description,
			item.Quantity, item.UnitPrice, item.Amount, item.Notes, item.SortOrder); err != nil {
			return fmt.Errorf("estimate repository: insert items %w", err)
		}
	}

	return inserter.Flush(ctx)
}

// GetByID возвращает смету без позиций.
func (r *EstimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	return common.GetByID[models.Estimate](ctx, r.db, "estimates", id, ErrEstimateNotFound)
}

// GetWithItems возвращает смету вместе с позициями.
func (r *EstimateRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	estimate.Items = items

	return estimate, nil
}

// ListItems возвращает позиции сметы в порядке добавления.
func (r *EstimateRepository) ListItems(ctx context.Context, estimateID uuid.UUID) ([]models.EstimateLineItem, error) {
	var items []models.EstimateLineItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM estimate_line_items WHERE estimate_id = $1 ORDER BY sort_order
	`, estimateID)
	if err != nil {
		return nil, fmt.Errorf("estimate repository: list items %w", err)
	}
	return items, nil
}

// ListByContractor возвращает сметы подрядчика с фильтром по статусу.
func (r *EstimateRepository) ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE contractor_id = $1`
	args := []interface{}{contractorID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var estimates []models.Estimate
	if err := r.db.SelectContext(ctx, &estimates, query, args...); err != nil {
		return nil, fmt.Errorf("estimate repository: list %w", err)
	}
	return estimates, nil
}

// UpdateDraft обновляет черновик сметы и полностью заменяет позиции.
// Условие status = 'draft' защищает от гонки с отправкой или принятием.
func (r *EstimateRepository) UpdateDraft(ctx context.Context, estimate *models.Estimate) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE estimates
			SET client_id = $2, project_id = $3, subtotal = $4, tax = $5,
				discount = $6, total = $7, notes = $8, updated_at = NOW()
			WHERE id = $1 AND status = 'draft'
		`, estimate.ID, estimate.ClientID, estimate.ProjectID, estimate.Subtotal,
			estimate.Tax, estimate.Discount, estimate.Total, estimate.Notes)
		if err != nil {
			return fmt.Errorf("estimate repository: update draft %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrStateConflict
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM estimate_line_items WHERE estimate_id = $1`, estimate.ID); err != nil {
			return fmt.Errorf("estimate repository: replace items %w", err)
		}

		return insertEstimateItems(ctx, tx, estimate)
	})
}

// MarkSent переводит черновик в статус sent.
func (r *EstimateRepository) MarkSent(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	return r.transition(ctx, `
		UPDATE estimates SET status = 'sent', updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING `+estimateColumns, id)
}

// MarkAccepted переводит смету в статус accepted и фиксирует время принятия.
func (r *EstimateRepository) MarkAccepted(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	return r.transition(ctx, `
		UPDATE estimates SET status = 'accepted', accepted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'sent')
		RETURNING `+estimateColumns, id)
}

// MarkRejected переводит смету в статус rejected с причиной.
func (r *EstimateRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string) (*models.Estimate, error) {
	return r.transition(ctx, `
		UPDATE estimates SET status = 'rejected', rejection_reason = $2,
			rejected_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'sent')
		RETURNING `+estimateColumns, id, reason)
}

// transition выполняет условное обновление статуса.
// Пустой результат означает, что статус сменился конкурентно.
func (r *EstimateRepository) transition(ctx context.Context, query string, args ...interface{}) (*models.Estimate, error) {
	var estimate models.Estimate
	if err := r.db.GetContext(ctx, &estimate, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateConflict
		}
		return nil, fmt.Errorf("estimate repository: transition %w", err)
	}
	return &estimate, nil
}

// Delete удаляет смету. Допустимо только для черновиков и отклонённых смет.
func (r *EstimateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM estimates WHERE id = $1 AND status IN ('draft', 'rejected')
	`, id)
	if err != nil {
		return fmt.Errorf("estimate repository: delete %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStateConflict
	}
	return nil
}

// NumberExists проверяет занятость номера сметы в пространстве подрядчика.
func (r *EstimateRepository) NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM estimates WHERE contractor_id = $1 AND number = $2
	`, contractorID, number)
	if err != nil {
		return false, fmt.Errorf("estimate repository: number exists %w", err)
	}
	return count > 0, nil
}
