package invoice

import (
	"math"

	"balancoffee/pos/internal/domain"
)

// CalculateTotal is the single authoritative totals formula. It is pure:
// no side effects, identical output for identical input. Every mutation
// and every display path goes through it; stored subtotal/total fields
// are caches of this result, never independent values.
//
// Percent discounts take a value in [0,100]; fixed discounts are an
// absolute amount. Either way the discount amount is clamped to the
// subtotal so the total never goes negative.
func CalculateTotal(items []domain.OrderLine, discount float64, discountType string) domain.TotalBreakdown {
	var subtotal int64
	for _, line := range items {
		subtotal += line.LineTotal()
	}

	var discountAmount int64
	if discount > 0 {
		if discountType == domain.DiscountPercent {
			discountAmount = int64(math.Round(float64(subtotal) * discount / 100))
		} else {
			discountAmount = int64(math.Round(discount))
		}
	}
	if discountAmount > subtotal {
		discountAmount = subtotal
	}

	total := subtotal - discountAmount
	if total < 0 {
		total = 0
	}

	return domain.TotalBreakdown{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
	}
}

// applyTotals recomputes the cached subtotal/total on an invoice and
// stamps the update time.
func (e *Engine) applyTotals(inv *domain.Invoice) domain.TotalBreakdown {
	breakdown := CalculateTotal(inv.Items, inv.Discount, inv.DiscountType)
	inv.Subtotal = breakdown.Subtotal
	inv.Total = breakdown.Total
	inv.UpdatedAt = e.now()
	return breakdown
}
