package dto

// LineItemRequest описывает позицию сметы или счёта в запросе.
// Денежные значения принимаются строками и парсятся в decimal,
// чтобы не терять точность на float64.
type LineItemRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    string  `json:"quantity" binding:"required"`
	UnitPrice   string  `json:"unit_price" binding:"required"`
	Notes       *string `json:"notes"`
}

// CreateEstimateRequest описывает запрос на создание сметы.
type CreateEstimateRequest struct {
	ClientID  string            `json:"client_id" binding:"required"`
	ProjectID *string           `json:"project_id"`
	Tax       string            `json:"tax"`
	Discount  string            `json:"discount"`
	Notes     *string           `json:"notes"`
	Items     []LineItemRequest `json:"items" binding:"required"`
}

// UpdateEstimateRequest описывает запрос на обновление черновика сметы.
type UpdateEstimateRequest struct {
	ClientID  string            `json:"client_id" binding:"required"`
	ProjectID *string           `json:"project_id"`
	Tax       string            `json:"tax"`
	Discount  string            `json:"discount"`
	Notes     *string           `json:"notes"`
	Items     []LineItemRequest `json:"items" binding:"required"`
}

// RejectEstimateRequest описывает запрос на отклонение сметы.
type RejectEstimateRequest struct {
	Reason string `json:"reason"`
}

// CreateInvoiceRequest описывает запрос на прямое выставление счёта
// без сметы.
type CreateInvoiceRequest struct {
	ClientID  string            `json:"client_id" binding:"required"`
	ProjectID *string           `json:"project_id"`
	Tax       string            `json:"tax"`
	Discount  string            `json:"discount"`
	Notes     *string           `json:"notes"`
	Items     []LineItemRequest `json:"items" binding:"required"`
}

// CancelInvoiceRequest описывает запрос на отмену счёта.
type CancelInvoiceRequest struct {
	Notes *string `json:"notes"`
}

// RecordPaymentRequest описывает запрос на запись платежа.
type RecordPaymentRequest struct {
	Amount string  `json:"amount" binding:"required"`
	Method string  `json:"method" binding:"required"`
	PaidAt *string `json:"paid_at"`
	Notes  *string `json:"notes"`
}

// ReversePaymentRequest описывает запрос на сторнирование платежа.
type ReversePaymentRequest struct {
	Reason string `json:"reason"`
}
