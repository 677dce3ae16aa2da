package service

import (
	"github.com/shopspring/decimal"

	"github.com/smetapro/contractor-backend/internal/domain/valueobject"
	"github.com/smetapro/contractor-backend/internal/dto"
	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
)

// parsedLineItem - позиция документа после валидации запроса.
type parsedLineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	Notes       *string
}

// parseMoney разбирает денежную строку запроса. Пустая строка равна нулю.
func parseMoney(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, apperror.New(apperror.ErrCodeValidation,
			"некорректное числовое значение поля "+field)
	}
	return d, nil
}

// parseLineItems валидирует позиции запроса и считает их суммы.
// Сумма позиции всегда вычисляется на сервере, значения клиента игнорируются.
func parseLineItems(items []dto.LineItemRequest) ([]parsedLineItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Decimal{}, apperror.New(apperror.ErrCodeValidation,
			"документ должен содержать хотя бы одну позицию")
	}

	parsed := make([]parsedLineItem, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		if item.Description == "" {
			return nil, decimal.Decimal{}, apperror.New(apperror.ErrCodeValidation,
				"описание позиции не может быть пустым")
		}

		quantity, err := parseMoney(item.Quantity, "quantity")
		if err != nil {
			return nil, decimal.Decimal{}, err
		}
		if quantity.Sign() <= 0 {
			return nil, decimal.Decimal{}, apperror.New(apperror.ErrCodeValidation,
				"количество должно быть положительным")
		}

		unitPrice, err := parseMoney(item.UnitPrice, "unit_price")
		if err != nil {
			return nil, decimal.Decimal{}, err
		}
		if unitPrice.Sign() < 0 {
			return nil, decimal.Decimal{}, apperror.New(apperror.ErrCodeValidation,
				"цена не может быть отрицательной")
		}

		amount := valueobject.LineAmount(quantity, unitPrice)
		subtotal = subtotal.Add(amount)

		parsed = append(parsed, parsedLineItem{
			Description: item.Description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Amount:      amount,
			Notes:       item.Notes,
		})
	}

	return parsed, subtotal, nil
}
