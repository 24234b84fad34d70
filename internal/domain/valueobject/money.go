package valueobject

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

const (
	DefaultCurrency = "EUR"
	// BasisPointsScale: 10000 б.п. = 100%.
	BasisPointsScale = 10000
)

// Money хранит сумму в минимальных единицах валюты (центах).
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	return Money{Amount: amount, Currency: NormalizeCurrency(currency)}, nil
}

// NewPositiveMoney используется для платежей: ноль и отрицательные суммы запрещены.
func NewPositiveMoney(amount int64, currency string) (Money, error) {
	if amount <= 0 {
		return Money{}, apperror.New(apperror.ErrCodeInvalidAmount, "сумма должна быть положительной")
	}
	return Money{Amount: amount, Currency: NormalizeCurrency(currency)}, nil
}

func NormalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}

// MinorFromMajor переводит сумму из API (евро) в центы.
func MinorFromMajor(major float64) int64 {
	return int64(math.Round(major * 100))
}

func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// FeeSplit делит сумму на комиссию площадки и долю исполнителя.
// Комиссия округляется половиной вверх, доля исполнителя получает остаток.
func FeeSplit(amount, feeBps int64) (fee, worker int64) {
	if amount <= 0 || feeBps <= 0 {
		return 0, amount
	}
	fee = (amount*feeBps + BasisPointsScale/2) / BasisPointsScale
	return fee, amount - fee
}

// ParseFeePercent разбирает "10" или "12.5" в базисные пункты.
func ParseFeePercent(raw string) (int64, error) {
	pct, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fee percent %q: %w", raw, err)
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("fee percent %v out of range [0, 100]", pct)
	}
	return int64(math.Round(pct * 100)), nil
}

func FeePercent(feeBps int64) float64 {
	return float64(feeBps) / 100
}
