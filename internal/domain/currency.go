package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency - код валюты баланса
type Currency string

const (
	CurrencyINCOIN Currency = "INCOIN"
	CurrencyUSD    Currency = "USD"
	CurrencyRUB    Currency = "RUB"
)

// Currencies lists every balance a user carries, primary first.
var Currencies = []Currency{CurrencyINCOIN, CurrencyUSD, CurrencyRUB}

// ParseCurrency accepts any letter case; an empty string means INCOIN.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "", CurrencyINCOIN:
		return CurrencyINCOIN, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyRUB:
		return CurrencyRUB, nil
	default:
		return "", ErrUnknownCurrency
	}
}

// Balances maps a currency to a signed amount. Missing entries read as zero.
type Balances map[Currency]decimal.Decimal

func (b Balances) Get(c Currency) decimal.Decimal {
	if v, ok := b[c]; ok {
		return v
	}
	return decimal.Zero
}

// Add applies a signed delta and returns the new amount.
func (b Balances) Add(c Currency, delta decimal.Decimal) decimal.Decimal {
	v := b.Get(c).Add(delta)
	b[c] = v
	return v
}

// Covers reports whether the balance in c is at least amount.
func (b Balances) Covers(c Currency, amount decimal.Decimal) bool {
	return b.Get(c).GreaterThanOrEqual(amount)
}

// Amount input policy. Every stored figure carries at most AmountScale
// fractional digits and stays below MaxAmount in magnitude.
const (
	AmountScale = 8

	maxAmountInput = 64
	maxAmountExp   = 32
)

// MaxAmount bounds any single user-supplied amount.
var MaxAmount = TopUpMax.Mul(decimal.NewFromInt(1_000_000))

// ParseAmount parses user input into a decimal. Empty, malformed and
// non-finite inputs yield ErrInvalidAmount, as do values finer than
// AmountScale places or larger than MaxAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountInput {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	// exponent is checked before any arithmetic: rescaling 1e-5000000 is
	// itself unbounded work
	if exp := d.Exponent(); exp < -maxAmountExp || exp > maxAmountExp {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(MaxAmount) || !d.Round(AmountScale).Equal(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
