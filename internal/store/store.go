package store

import (
	"context"
	"errors"
	"time"

	"balancoffee/pos/internal/domain"
)

// ErrPersistence wraps durable-store failures (connection loss, quota,
// serialization). The engine logs these and keeps in-memory state
// authoritative for the rest of the session.
var ErrPersistence = errors.New("persistence failure")

// Storage keys for the logical records. The invoice and history
// collections carry the keys the original terminal used; backends may
// namespace them.
const (
	KeyInvoices       = "balancoffee_invoices"
	KeyOrderHistory   = "balancoffee_order_history"
	KeyShiftStart     = "shiftStartTime"
	KeyArchivedShifts = "balancoffee_archived_shifts"
)

// Repository is durable key-value storage for the engine's collections,
// JSON-serialized per logical record. Reads happen at startup load;
// writes are debounced by the engine during the session. Writes across
// collections are not transactional.
type Repository interface {
	LoadInvoices(ctx context.Context) ([]domain.Invoice, error)
	SaveInvoices(ctx context.Context, invoices []domain.Invoice) error
	LoadOrderHistory(ctx context.Context) ([]domain.OrderHistoryRecord, error)
	SaveOrderHistory(ctx context.Context, records []domain.OrderHistoryRecord) error
	// LoadShiftStart returns the zero time when no shift marker exists yet.
	LoadShiftStart(ctx context.Context) (time.Time, error)
	SaveShiftStart(ctx context.Context, at time.Time) error
	AppendShiftArchive(ctx context.Context, archive domain.ShiftArchive) error
	ListShiftArchives(ctx context.Context) ([]domain.ShiftArchive, error)
}
