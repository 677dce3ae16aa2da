package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTotals(t *testing.T) {
	totals, err := NewTotals(decimal.NewFromInt(1000), decimal.NewFromInt(200), decimal.NewFromInt(100))
	assert.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1100)))
}

func TestNewTotals_NegativeInput(t *testing.T) {
	_, err := NewTotals(decimal.NewFromInt(-1), decimal.Zero, decimal.Zero)
	assert.Error(t, err)

	_, err = NewTotals(decimal.NewFromInt(100), decimal.NewFromInt(-1), decimal.Zero)
	assert.Error(t, err)
}

func TestNewTotals_DiscountExceedsSum(t *testing.T) {
	_, err := NewTotals(decimal.NewFromInt(100), decimal.Zero, decimal.NewFromInt(200))
	assert.Error(t, err)
}

func TestLineAmount(t *testing.T) {
	amount := LineAmount(decimal.NewFromFloat(2.5), decimal.NewFromFloat(99.90))
	assert.True(t, amount.Equal(decimal.NewFromFloat(249.75)))
}

func TestApplyPayment(t *testing.T) {
	total := decimal.NewFromInt(8750)

	paid, status := ApplyPayment(total, decimal.Zero, decimal.NewFromInt(3000))
	assert.True(t, paid.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, InvoiceStatusPartiallyPaid, status)

	paid, status = ApplyPayment(total, paid, decimal.NewFromInt(5750))
	assert.True(t, paid.Equal(total))
	assert.Equal(t, InvoiceStatusPaid, status)
}

func TestRevertPayment_RoundTrip(t *testing.T) {
	// Запись и сторнирование одного платежа возвращают исходный баланс.
	total := decimal.NewFromInt(8750)
	initial := decimal.NewFromInt(3000)
	payment := decimal.NewFromFloat(1234.56)

	paid, _ := ApplyPayment(total, initial, payment)
	reverted, status := RevertPayment(total, paid, payment)

	assert.True(t, reverted.Equal(initial))
	assert.Equal(t, InvoiceStatusPartiallyPaid, status)
}

func TestRevertPayment_FloorsAtZero(t *testing.T) {
	total := decimal.NewFromInt(1000)

	paid, status := RevertPayment(total, decimal.NewFromInt(100), decimal.NewFromInt(500))
	assert.True(t, paid.Equal(decimal.Zero))
	assert.Equal(t, InvoiceStatusPending, status)
}

func TestRevertPayment_FullReversal(t *testing.T) {
	total := decimal.NewFromInt(1000)

	paid, status := RevertPayment(total, total, total)
	assert.True(t, paid.IsZero())
	assert.Equal(t, InvoiceStatusPending, status)
}

func TestRemainingBalance(t *testing.T) {
	total := decimal.NewFromInt(8750)

	remaining := RemainingBalance(total, decimal.NewFromInt(3000))
	assert.True(t, remaining.Equal(decimal.NewFromInt(5750)))

	remaining = RemainingBalance(total, total)
	assert.True(t, remaining.IsZero())

	// Остаток не опускается ниже нуля
	remaining = RemainingBalance(total, decimal.NewFromInt(9000))
	assert.True(t, remaining.IsZero())
}

func TestPaidPercent(t *testing.T) {
	total := decimal.NewFromInt(8750)

	percent := PaidPercent(total, decimal.NewFromInt(3000))
	assert.True(t, percent.Equal(decimal.NewFromFloat(34.29)), "got %s", percent)

	percent = PaidPercent(total, total)
	assert.True(t, percent.Equal(decimal.NewFromInt(100)))
}

func TestPaidPercent_ZeroTotal(t *testing.T) {
	percent := PaidPercent(decimal.Zero, decimal.Zero)
	assert.True(t, percent.IsZero())
}
