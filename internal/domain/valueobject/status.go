package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
)

type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusAccepted  EstimateStatus = "accepted"
	EstimateStatusRejected  EstimateStatus = "rejected"
	EstimateStatusConverted EstimateStatus = "converted"
)

func (s EstimateStatus) IsValid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusAccepted,
		EstimateStatusRejected, EstimateStatusConverted:
		return true
	}
	return false
}

// IsTerminal сообщает, достигла ли смета конечного состояния.
// Из converted и rejected переходов нет; accepted допускает только конвертацию.
func (s EstimateStatus) IsTerminal() bool {
	return s == EstimateStatusRejected || s == EstimateStatusConverted
}

func (s EstimateStatus) CanTransitionTo(newStatus EstimateStatus) bool {
	transitions := map[EstimateStatus][]EstimateStatus{
		EstimateStatusDraft:     {EstimateStatusSent, EstimateStatusAccepted, EstimateStatusRejected},
		EstimateStatusSent:      {EstimateStatusAccepted, EstimateStatusRejected},
		EstimateStatusAccepted:  {EstimateStatusConverted},
		EstimateStatusRejected:  {},
		EstimateStatusConverted: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewEstimateStatus(status string) (EstimateStatus, error) {
	s := EstimateStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус сметы")
	}
	return s, nil
}

type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanBeCancelled сообщает, допустима ли явная отмена из текущего статуса.
// Оплаченный счёт отменить нельзя, отмена терминальна.
func (s InvoiceStatus) CanBeCancelled() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartiallyPaid
}

// DeriveInvoiceStatus вычисляет статус счёта как чистую функцию от
// оплаченной суммы и итога. Для отменённых счетов не вызывается:
// cancelled выставляется только явной операцией отмены.
func DeriveInvoiceStatus(amountPaid, total decimal.Decimal) InvoiceStatus {
	switch {
	case amountPaid.Sign() <= 0:
		return InvoiceStatusPending
	case amountPaid.LessThan(total):
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPaid
	}
}

type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}
