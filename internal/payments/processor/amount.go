package processor

import (
	"math"
	"strings"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
}

// IsZeroDecimal reports whether currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// ToMinorUnits converts a decimal amount into the provider's smallest unit.
func ToMinorUnits(amount float64, currency string) int64 {
	if IsZeroDecimal(currency) {
		return int64(math.Round(amount))
	}
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts a provider amount back into a decimal amount.
func FromMinorUnits(amount int64, currency string) float64 {
	if IsZeroDecimal(currency) {
		return float64(amount)
	}
	return float64(amount) / 100
}

// NormalizeCurrency upper-cases an ISO code, defaulting to USD.
func NormalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "USD"
	}
	return currency
}
