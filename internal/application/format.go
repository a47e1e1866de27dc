package application

import "github.com/shopspring/decimal"

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// FormatPrice renders a price the way the shop shows it, e.g. "€38.99".
// Unknown currencies fall back to a code prefix.
func FormatPrice(currency string, price decimal.Decimal) string {
	if sym, ok := currencySymbols[currency]; ok {
		return sym + price.StringFixed(2)
	}
	if currency == "" {
		return price.StringFixed(2)
	}
	return currency + " " + price.StringFixed(2)
}
