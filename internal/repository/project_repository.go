package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository/common"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO projects (contractor_id, client_id, name, status, service_type, budget, invoice_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, project.ContractorID, project.ClientID, project.Name, project.Status,
		project.ServiceType, project.Budget, project.InvoiceID,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, r.db, "projects", id, ErrProjectNotFound)
}

// ListByContractor возвращает проекты подрядчика с фильтром по статусу.
func (r *ProjectRepository) ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Project, error) {
	query := `SELECT * FROM projects WHERE contractor_id = $1`
	args := []interface{}{contractorID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("project repository: list %w", err)
	}
	return projects, nil
}

// AdvanceToInProgress переводит ожидающий проект в работу.
// Условное обновление: проект в любом другом статусе не трогается,
// повторный вызов безопасен.
func (r *ProjectRepository) AdvanceToInProgress(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = 'in_progress', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("project repository: advance %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
