package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders whole rupees with the rupee sign and Indian digit
// grouping, no decimal places: 500000 -> "₹5,00,000".
func FormatINR(amount int64) string {
	return inrPrinter.Sprintf("₹%v", number.Decimal(amount, number.MaxFractionDigits(0)))
}
