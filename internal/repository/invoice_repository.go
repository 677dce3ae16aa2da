package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/smetapro/contractor-backend/internal/domain/valueobject"
	"github.com/smetapro/contractor-backend/internal/models"
	"github.com/smetapro/contractor-backend/internal/repository/common"
)

var (
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrInvoiceCancelled        = errors.New("invoice is cancelled")
	ErrInvoiceAlreadyPaid      = errors.New("invoice is already paid")
	ErrInvoiceAlreadyCancelled = errors.New("invoice is already cancelled")
	ErrInvoiceHasPayments      = errors.New("invoice has recorded payments")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentMismatch         = errors.New("payment belongs to another invoice")
	ErrPaymentAlreadyReversed  = errors.New("payment is already reversed")
)

// OverpaymentError возвращается при попытке записать платёж сверх итога счёта.
// Несёт актуальные числа, чтобы вызывающая сторона могла скорректировать запрос.
type OverpaymentError struct {
	AmountPaid decimal.Decimal
	Total      decimal.Decimal
	Remaining  decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment exceeds remaining balance: paid %s of %s, remaining %s",
		e.AmountPaid, e.Total, e.Remaining)
}

type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create сохраняет счёт вместе с позициями в одной транзакции.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertInvoice(ctx, tx, invoice); err != nil {
			return err
		}
		if err := insertInvoiceItems(ctx, tx, invoice); err != nil {
			return err
		}
		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionCreated, nil, map[string]interface{}{
				"number": invoice.Number,
				"total":  invoice.Total,
			})
	})
}

// CreateFromEstimate выполняет конвертацию принятой сметы в счёт:
// создание счёта, копирование позиций и перевод сметы в converted
// происходят в одной транзакции и откатываются целиком при любой ошибке.
func (r *InvoiceRepository) CreateFromEstimate(ctx context.Context, estimate *models.Estimate, invoice *models.Invoice) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE estimates SET status = 'converted', updated_at = NOW()
			WHERE id = $1 AND status = 'accepted'
		`, estimate.ID)
		if err != nil {
			return fmt.Errorf("invoice repository: convert estimate %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrStateConflict
		}
		estimate.Status = models.EstimateStatusConverted

		if err := insertInvoice(ctx, tx, invoice); err != nil {
			return err
		}
		if err := insertInvoiceItems(ctx, tx, invoice); err != nil {
			return err
		}

		if err := addHistory(ctx, tx, models.HistoryEntityEstimate, estimate.ID, &estimate.ContractorID,
			models.HistoryActionConverted,
			map[string]interface{}{"status": models.EstimateStatusAccepted},
			map[string]interface{}{"status": models.EstimateStatusConverted, "invoice_number": invoice.Number},
		); err != nil {
			return err
		}
		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionCreated, nil, map[string]interface{}{
				"number":          invoice.Number,
				"total":           invoice.Total,
				"estimate_number": estimate.Number,
			})
	})
}

func insertInvoice(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO invoices (contractor_id, client_id, project_id, estimate_id, number,
			status, subtotal, tax, discount, total, amount_paid, issued_at, due_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, invoice.ContractorID, invoice.ClientID, invoice.ProjectID, invoice.EstimateID,
		invoice.Number, invoice.Status, invoice.Subtotal, invoice.Tax, invoice.Discount,
		invoice.Total, invoice.AmountPaid, invoice.IssuedAt, invoice.DueDate, invoice.Notes,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("invoice repository: create %w", err)
	}
	return nil
}

func insertInvoiceItems(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice) error {
	if len(invoice.Items) == 0 {
		return nil
	}

	inserter := common.NewBatchInserter(tx, `
		INSERT INTO invoice_line_items (id, invoice_id, description, quantity, unit_price, amount, notes, sort_order)
	`, 8, 100)

	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.ID = uuid.New()
		item.InvoiceID = invoice.ID
		item.SortOrder = i
		if err := inserter.Add(ctx, item.ID, item.InvoiceID, item.Description,
			item.Quantity, item.UnitPrice, item.Amount, item.Notes, item.SortOrder); err != nil {
			return fmt.Errorf("invoice repository: insert items %w", err)
		}
	}

	return inserter.Flush(ctx)
}

// GetByID возвращает счёт без позиций и платежей.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return common.GetByID[models.Invoice](ctx, r.db, "invoices", id, ErrInvoiceNotFound)
}

// GetWithDetails возвращает счёт вместе с позициями и платежами.
func (r *InvoiceRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	if err := r.db.SelectContext(ctx, &invoice.Payments, `
		SELECT * FROM payments WHERE invoice_id = $1 ORDER BY created_at
	`, id); err != nil {
		return nil, fmt.Errorf("invoice repository: list payments %w", err)
	}

	return invoice, nil
}

// ListItems возвращает позиции счёта в порядке добавления.
func (r *InvoiceRepository) ListItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	var items []models.InvoiceLineItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY sort_order
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoice repository: list items %w", err)
	}
	return items, nil
}

// ListByContractor возвращает счета подрядчика с фильтром по статусу.
func (r *InvoiceRepository) ListByContractor(ctx context.Context, contractorID uuid.UUID, status string, limit, offset int) ([]models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE contractor_id = $1`
	args := []interface{}{contractorID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("invoice repository: list %w", err)
	}
	return invoices, nil
}

// RecordPayment записывает платёж и обновляет баланс счёта.
// Строка счёта блокируется на время транзакции (SELECT ... FOR UPDATE),
// поэтому конкурентные платежи по одному счёту сериализуются и не могут
// вдвоём пройти проверку переплаты по устаревшему amount_paid.
func (r *InvoiceRepository) RecordPayment(ctx context.Context, invoiceID uuid.UUID, payment *models.Payment) (*models.Invoice, error) {
	var invoice *models.Invoice

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		invoice, err = lockInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if invoice.Status == models.InvoiceStatusCancelled {
			return ErrInvoiceCancelled
		}

		remaining := valueobject.RemainingBalance(invoice.Total, invoice.AmountPaid)
		if payment.Amount.GreaterThan(remaining) {
			return &OverpaymentError{
				AmountPaid: invoice.AmountPaid,
				Total:      invoice.Total,
				Remaining:  remaining,
			}
		}

		payment.InvoiceID = invoiceID
		payment.Status = models.PaymentStatusActive
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payments (invoice_id, amount, method, paid_at, notes, status)
			VALUES ($1, $2, $3, $4, $5, 'active')
			RETURNING id, created_at
		`, payment.InvoiceID, payment.Amount, payment.Method, payment.PaidAt, payment.Notes,
		).Scan(&payment.ID, &payment.CreatedAt)
		if err != nil {
			return fmt.Errorf("invoice repository: insert payment %w", err)
		}

		oldPaid := invoice.AmountPaid
		newPaid, newStatus := valueobject.ApplyPayment(invoice.Total, invoice.AmountPaid, payment.Amount)
		if err := updateInvoiceBalance(ctx, tx, invoice, newPaid, string(newStatus)); err != nil {
			return err
		}

		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionPayment,
			map[string]interface{}{"amount_paid": oldPaid},
			map[string]interface{}{
				"amount_paid": newPaid,
				"payment_id":  payment.ID,
				"amount":      payment.Amount,
				"method":      payment.Method,
			})
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// ReversePayment сторнирует платёж и откатывает его влияние на баланс.
// Запись платежа сохраняется для аудита, удаление не предусмотрено.
func (r *InvoiceRepository) ReversePayment(ctx context.Context, invoiceID, paymentID uuid.UUID, reason string) (*models.Invoice, *models.Payment, error) {
	var (
		invoice *models.Invoice
		payment models.Payment
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		invoice, err = lockInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, paymentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("invoice repository: get payment %w", err)
		}

		if payment.InvoiceID != invoiceID {
			return ErrPaymentMismatch
		}
		if payment.Status == models.PaymentStatusReversed {
			return ErrPaymentAlreadyReversed
		}

		if err := tx.GetContext(ctx, &payment, `
			UPDATE payments SET status = 'reversed', reversal_reason = $2, reversed_at = NOW()
			WHERE id = $1
			RETURNING *
		`, paymentID, reason); err != nil {
			return fmt.Errorf("invoice repository: reverse payment %w", err)
		}

		oldPaid := invoice.AmountPaid
		newPaid, newStatus := valueobject.RevertPayment(invoice.Total, invoice.AmountPaid, payment.Amount)
		// Отменённый счёт остаётся отменённым: статус из баланса не выводится.
		statusValue := string(newStatus)
		if invoice.Status == models.InvoiceStatusCancelled {
			statusValue = models.InvoiceStatusCancelled
		}
		if err := updateInvoiceBalance(ctx, tx, invoice, newPaid, statusValue); err != nil {
			return err
		}

		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionReversal,
			map[string]interface{}{"amount_paid": oldPaid},
			map[string]interface{}{
				"amount_paid": newPaid,
				"payment_id":  payment.ID,
				"reason":      reason,
			})
	})
	if err != nil {
		return nil, nil, err
	}

	return invoice, &payment, nil
}

// Recalculate восстанавливает amount_paid из суммы активных платежей.
// Операция идемпотентна: повторный вызов без изменений в платежах
// не меняет счёт и не пишет запись в журнал.
func (r *InvoiceRepository) Recalculate(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, bool, error) {
	var (
		invoice *models.Invoice
		changed bool
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		invoice, err = lockInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		var actualPaid decimal.Decimal
		if err := tx.GetContext(ctx, &actualPaid, `
			SELECT COALESCE(SUM(amount), 0) FROM payments
			WHERE invoice_id = $1 AND status = 'active'
		`, invoiceID); err != nil {
			return fmt.Errorf("invoice repository: sum payments %w", err)
		}

		statusValue := string(valueobject.DeriveInvoiceStatus(actualPaid, invoice.Total))
		if invoice.Status == models.InvoiceStatusCancelled {
			statusValue = models.InvoiceStatusCancelled
		}

		if invoice.AmountPaid.Equal(actualPaid) && invoice.Status == statusValue {
			return nil
		}

		oldPaid := invoice.AmountPaid
		changed = true
		if err := updateInvoiceBalance(ctx, tx, invoice, actualPaid, statusValue); err != nil {
			return err
		}

		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionRecalculated,
			map[string]interface{}{"amount_paid": oldPaid},
			map[string]interface{}{"amount_paid": actualPaid})
	})
	if err != nil {
		return nil, false, err
	}

	return invoice, changed, nil
}

// Cancel отменяет счёт. Допустимо только из pending и partially_paid.
func (r *InvoiceRepository) Cancel(ctx context.Context, invoiceID uuid.UUID, notes *string) (*models.Invoice, error) {
	var invoice *models.Invoice

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		invoice, err = lockInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		switch invoice.Status {
		case models.InvoiceStatusCancelled:
			return ErrInvoiceAlreadyCancelled
		case models.InvoiceStatusPaid:
			return ErrInvoiceAlreadyPaid
		}

		oldStatus := invoice.Status
		if err := tx.GetContext(ctx, invoice, `
			UPDATE invoices SET status = 'cancelled', cancelled_at = NOW(),
				cancel_notes = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`, invoiceID, notes); err != nil {
			return fmt.Errorf("invoice repository: cancel %w", err)
		}

		return addHistory(ctx, tx, models.HistoryEntityInvoice, invoice.ID, &invoice.ContractorID,
			models.HistoryActionCancelled,
			map[string]interface{}{"status": oldStatus},
			map[string]interface{}{"status": models.InvoiceStatusCancelled, "notes": notes})
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// Delete удаляет счёт. Счёт с платежами (включая сторнированные) не удаляется.
func (r *InvoiceRepository) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var paymentCount int
		if err := tx.GetContext(ctx, &paymentCount, `
			SELECT COUNT(*) FROM payments WHERE invoice_id = $1
		`, invoiceID); err != nil {
			return fmt.Errorf("invoice repository: count payments %w", err)
		}
		if paymentCount > 0 {
			return ErrInvoiceHasPayments
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice repository: delete %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrInvoiceNotFound
		}
		return nil
	})
}

// AttachProject привязывает созданный триггером проект к счёту.
func (r *InvoiceRepository) AttachProject(ctx context.Context, invoiceID, projectID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET project_id = $2, updated_at = NOW() WHERE id = $1
	`, invoiceID, projectID)
	if err != nil {
		return fmt.Errorf("invoice repository: attach project %w", err)
	}
	return nil
}

// NumberExists проверяет занятость номера счёта в пространстве подрядчика.
func (r *InvoiceRepository) NumberExists(ctx context.Context, contractorID uuid.UUID, number string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM invoices WHERE contractor_id = $1 AND number = $2
	`, contractorID, number)
	if err != nil {
		return false, fmt.Errorf("invoice repository: number exists %w", err)
	}
	return count > 0, nil
}

// lockInvoice читает строку счёта с блокировкой до конца транзакции.
func lockInvoice(ctx context.Context, tx *sqlx.Tx, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.GetContext(ctx, &invoice, `SELECT * FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: lock invoice %w", err)
	}
	return &invoice, nil
}

// updateInvoiceBalance записывает новый баланс и статус в заблокированную строку.
func updateInvoiceBalance(ctx context.Context, tx *sqlx.Tx, invoice *models.Invoice, amountPaid decimal.Decimal, status string) error {
	if err := tx.GetContext(ctx, invoice, `
		UPDATE invoices SET amount_paid = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, invoice.ID, amountPaid, status); err != nil {
		return fmt.Errorf("invoice repository: update balance %w", err)
	}
	return nil
}

// addHistory пишет запись журнала аудита внутри текущей транзакции.
func addHistory(ctx context.Context, tx *sqlx.Tx, entityType string, entityID uuid.UUID, contractorID *uuid.UUID, action string, oldValue, newValue interface{}) error {
	oldJSON, _ := json.Marshal(oldValue)
	newJSON, _ := json.Marshal(newValue)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_history (entity_type, entity_id, contractor_id, action, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entityType, entityID, contractorID, action, oldJSON, newJSON); err != nil {
		return fmt.Errorf("invoice repository: add history %w", err)
	}
	return nil
}
