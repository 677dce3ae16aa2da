package models

// EstimateStatus константы статусов смет
const (
	EstimateStatusDraft     = "draft"
	EstimateStatusSent      = "sent"
	EstimateStatusAccepted  = "accepted"
	EstimateStatusRejected  = "rejected"
	EstimateStatusConverted = "converted"
)

// InvoiceStatus константы статусов счетов
const (
	InvoiceStatusPending       = "pending"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusCancelled     = "cancelled"
)

// PaymentStatus константы статусов платежей
const (
	PaymentStatusActive   = "active"
	PaymentStatusReversed = "reversed"
)

// ProjectStatus константы статусов проектов
const (
	ProjectStatusPending    = "pending"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Типы сущностей в журнале аудита
const (
	HistoryEntityEstimate = "estimate"
	HistoryEntityInvoice  = "invoice"
)

// Действия в журнале аудита
const (
	HistoryActionCreated      = "created"
	HistoryActionSent         = "sent"
	HistoryActionAccepted     = "accepted"
	HistoryActionRejected     = "rejected"
	HistoryActionConverted    = "converted"
	HistoryActionPayment      = "payment_recorded"
	HistoryActionReversal     = "payment_reversed"
	HistoryActionRecalculated = "balance_recalculated"
	HistoryActionCancelled    = "cancelled"
)

// ValidEstimateStatuses список валидных статусов смет
var ValidEstimateStatuses = map[string]struct{}{
	EstimateStatusDraft:     {},
	EstimateStatusSent:      {},
	EstimateStatusAccepted:  {},
	EstimateStatusRejected:  {},
	EstimateStatusConverted: {},
}

// ValidInvoiceStatuses список валидных статусов счетов
var ValidInvoiceStatuses = map[string]struct{}{
	InvoiceStatusPending:       {},
	InvoiceStatusPartiallyPaid: {},
	InvoiceStatusPaid:          {},
	InvoiceStatusCancelled:     {},
}

// ValidProjectStatuses список валидных статусов проектов
var ValidProjectStatuses = map[string]struct{}{
	ProjectStatusPending:    {},
	ProjectStatusInProgress: {},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
}
