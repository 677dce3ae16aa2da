package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/smetapro/contractor-backend/internal/pkg/apperror"
)

// Totals хранит денежные итоги сметы или счёта.
// Инвариант: Total = Subtotal + Tax - Discount, никогда не отрицателен.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

func NewTotals(subtotal, tax, discount decimal.Decimal) (Totals, error) {
	if subtotal.Sign() < 0 || tax.Sign() < 0 || discount.Sign() < 0 {
		return Totals{}, apperror.New(apperror.ErrCodeValidation, "денежные суммы не могут быть отрицательными")
	}

	total := subtotal.Add(tax).Sub(discount)
	if total.Sign() < 0 {
		return Totals{}, apperror.New(apperror.ErrCodeValidation, "скидка превышает сумму сметы")
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}, nil
}

// LineAmount вычисляет сумму позиции. Количество и цена валидируются
// до вызова; произведение считается в decimal без округления.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// ApplyPayment вычисляет новое состояние баланса счёта после платежа.
// Возвращает обновлённую оплаченную сумму и выведенный статус.
// Переплата отклоняется вызывающей стороной до применения.
func ApplyPayment(total, amountPaid, payment decimal.Decimal) (decimal.Decimal, InvoiceStatus) {
	newPaid := amountPaid.Add(payment)
	return newPaid, DeriveInvoiceStatus(newPaid, total)
}

// RevertPayment откатывает влияние платежа на баланс счёта.
// Оплаченная сумма никогда не опускается ниже нуля.
func RevertPayment(total, amountPaid, payment decimal.Decimal) (decimal.Decimal, InvoiceStatus) {
	newPaid := amountPaid.Sub(payment)
	if newPaid.Sign() < 0 {
		newPaid = decimal.Zero
	}
	return newPaid, DeriveInvoiceStatus(newPaid, total)
}

// RemainingBalance возвращает остаток к оплате (не меньше нуля).
func RemainingBalance(total, amountPaid decimal.Decimal) decimal.Decimal {
	remaining := total.Sub(amountPaid)
	if remaining.Sign() < 0 {
		return decimal.Zero
	}
	return remaining
}

// PaidPercent возвращает долю оплаты в процентах, округлённую до двух знаков.
func PaidPercent(total, amountPaid decimal.Decimal) decimal.Decimal {
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	return amountPaid.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}
