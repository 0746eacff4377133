// Package currency formats whole-VND amounts for display: fixed vi-VN
// digit grouping with a trailing đồng glyph. Amounts are non-negative
// integers in the smallest whole-currency unit; formatting is a display
// concern only and never feeds back into totals.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Vietnamese)

// Format renders an amount like 50000 as "50.000₫". Negative input is
// clamped to zero; totals are guaranteed non-negative upstream.
func Format(amount int64) string {
	if amount < 0 {
		amount = 0
	}
	return printer.Sprintf("%v₫", number.Decimal(amount))
}
