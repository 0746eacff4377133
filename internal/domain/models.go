package domain

import "time"

// MenuItem is one purchasable entry from the catalog. Loaded once at
// startup and never mutated; order lines copy the price at add time so a
// later catalog change does not retroactively alter existing invoices.
type MenuItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}

// OrderLine is one menu item plus quantity inside an invoice. Quantity is
// always >= 1 while the line exists; a line whose quantity would drop to
// zero is removed, never persisted at zero.
type OrderLine struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// LineTotal returns price * quantity for this line.
func (l OrderLine) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Invoice is a customer order, pending or paid. Subtotal and Total are
// engine-maintained caches that always equal the value of the total
// calculation over Items/Discount/DiscountType.
type Invoice struct {
	ID           string      `json:"id"`
	Items        []OrderLine `json:"items"`
	Subtotal     int64       `json:"subtotal"`
	Discount     float64     `json:"discount"`
	DiscountType string      `json:"discountType"`
	Total        int64       `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the engine-owned line slice.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Items = make([]OrderLine, len(inv.Items))
	copy(out.Items, inv.Items)
	if inv.PaidAt != nil {
		paidAt := *inv.PaidAt
		out.PaidAt = &paidAt
	}
	return out
}

// TotalBreakdown is the result of the authoritative total calculation.
type TotalBreakdown struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discountAmount"`
	Total          int64 `json:"total"`
}

// OrderHistoryRecord is the denormalized snapshot appended exactly once
// when an invoice transitions to paid. It is never edited afterwards.
type OrderHistoryRecord struct {
	ID        string      `json:"id"`
	Items     []OrderLine `json:"items"`
	Total     int64       `json:"total"`
	Timestamp time.Time   `json:"timestamp"`
	Status    string      `json:"status"`
}

// ShiftInfo summarizes one closed shift.
type ShiftInfo struct {
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	TotalOrders  int       `json:"totalOrders"`
	TotalRevenue int64     `json:"totalRevenue"`
}

// ShiftArchive is the append-only record written when a shift is rotated:
// the summary plus the paid orders that fell inside the shift window.
type ShiftArchive struct {
	Info   ShiftInfo            `json:"shiftInfo"`
	Orders []OrderHistoryRecord `json:"orders"`
}

// SalesSummary is a derived reporting view over order history.
type SalesSummary struct {
	Orders    int   `json:"orders"`
	ItemsSold int   `json:"itemsSold"`
	Revenue   int64 `json:"revenue"`
}

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)
