// Package currency formats USD amounts in the user's display currency.
package currency

import (
	"strings"

	"github.com/Rhymond/go-money"
)

const (
	USD = money.USD
	BWP = money.BWP
)

// Default is the display currency used until the user picks one.
const Default = USD

// Supported reports whether code can be chosen as display currency.
func Supported(code string) bool {
	switch strings.ToUpper(code) {
	case USD, BWP:
		return true
	}
	return false
}

// Format renders amount in the given currency, e.g. "$1,234.56" or "P13.60".
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	if !Supported(code) {
		code = Default
	}
	return money.NewFromFloat(amount, code).Display()
}

// Converter converts between fiat currencies.
type Converter interface {
	Convert(amount float64, base, target string) float64
}

// FormatUSD converts a USD amount into code with fx and formats it.
func FormatUSD(amountUSD float64, code string, fx Converter) string {
	code = strings.ToUpper(code)
	if !Supported(code) {
		code = Default
	}
	if code != USD && fx != nil {
		amountUSD = fx.Convert(amountUSD, USD, code)
	}
	return Format(amountUSD, code)
}
