package invoice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/render"
	"balancoffee/pos/internal/sched"
	"balancoffee/pos/internal/store"
	"balancoffee/pos/internal/xid"
)

var (
	// ErrNotFound means the referenced invoice or line does not exist.
	ErrNotFound = errors.New("invoice: not found")
	// ErrInvalidState means the operation is not allowed in the
	// invoice's current status, e.g. mutating a paid invoice.
	ErrInvalidState = errors.New("invoice: invalid state")
	// ErrValidation means the input itself is malformed.
	ErrValidation = errors.New("invoice: validation failed")
)

// Notification kinds, matching what presentation layers key styling on.
const (
	NotifySuccess = "success"
	NotifyInfo    = "info"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notifier receives user-facing messages emitted by engine operations.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(kind, message string)
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) Notify(string, string) {}

const persistTimeout = 5 * time.Second

// Engine owns the live invoice state: the ordered invoice list, the
// order history of the current shift, the shift start marker and the
// current selection. All mutations recompute totals through
// CalculateTotal, mark the touched datasets dirty and schedule a
// single debounced save, and invalidate the presentation surfaces the
// change affects.
type Engine struct {
	mu       sync.Mutex
	repo     store.Repository
	syncer   *render.Syncer
	notifier Notifier
	saver    *sched.Debouncer

	invoices   []*domain.Invoice
	history    []domain.OrderHistoryRecord
	shiftStart time.Time
	selectedID string

	dirtyInvoices bool
	dirtyHistory  bool
	dirtyShift    bool

	now   func() time.Time
	newID func() string
}

// New builds an Engine over the given repository. The syncer may be
// nil when no presentation layer is attached; the notifier may be nil
// to discard messages. saveDelay is the debounce window for persisting
// dirty state.
func New(repo store.Repository, syncer *render.Syncer, notifier Notifier, saveDelay time.Duration) *Engine {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	e := &Engine{
		repo:     repo,
		syncer:   syncer,
		notifier: notifier,
		now:      time.Now,
		newID:    func() string { return xid.New("INV") },
	}
	e.saver = sched.NewDebouncer(saveDelay, e.persistAsync)
	return e
}

// Load hydrates the engine from the repository. Totals are recomputed
// on every loaded invoice so records written by older formulas are
// migrated in place. A failing dataset is logged and replaced with an
// empty one instead of aborting startup.
func (e *Engine) Load(ctx context.Context) error {
	invoices, err := e.repo.LoadInvoices(ctx)
	if err != nil {
		log.Printf("[invoice] load invoices: %v", err)
		e.notifier.Notify(NotifyWarning, "could not load saved invoices, starting empty")
		invoices = nil
	}
	history, err := e.repo.LoadOrderHistory(ctx)
	if err != nil {
		log.Printf("[invoice] load order history: %v", err)
		e.notifier.Notify(NotifyWarning, "could not load order history, starting empty")
		history = nil
	}
	shiftStart, err := e.repo.LoadShiftStart(ctx)
	if err != nil {
		log.Printf("[invoice] load shift start: %v", err)
		shiftStart = time.Time{}
	}

	e.mu.Lock()
	e.invoices = e.invoices[:0]
	migrated := false
	for i := range invoices {
		inv := invoices[i].Clone()
		breakdown := CalculateTotal(inv.Items, inv.Discount, inv.DiscountType)
		if inv.Subtotal != breakdown.Subtotal || inv.Total != breakdown.Total {
			inv.Subtotal = breakdown.Subtotal
			inv.Total = breakdown.Total
			migrated = true
		}
		e.invoices = append(e.invoices, &inv)
	}
	e.history = append(e.history[:0], history...)
	e.shiftStart = shiftStart
	e.selectedID = ""
	if migrated {
		e.dirtyInvoices = true
		e.saver.Trigger()
	}
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)
	return nil
}

// CreateInvoice opens a new pending invoice and selects it. When
// initial is non-nil the invoice starts with one line of that item.
func (e *Engine) CreateInvoice(initial *domain.MenuItem) (domain.Invoice, error) {
	now := e.now()
	inv := &domain.Invoice{
		ID:           e.newID(),
		Status:       domain.StatusPending,
		DiscountType: domain.DiscountPercent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if initial != nil {
		inv.Items = append(inv.Items, domain.OrderLine{
			ID:       initial.ID,
			Name:     initial.Name,
			Price:    initial.Price,
			Quantity: 1,
		})
	}
	e.applyTotals(inv)

	e.mu.Lock()
	e.invoices = append(e.invoices, inv)
	e.selectedID = inv.ID
	e.markDirtyLocked(&e.dirtyInvoices)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)
	return inv.Clone(), nil
}

// SelectInvoice makes the given invoice the target of item operations.
// Selecting the already-selected invoice clears the selection. Paid
// invoices cannot be selected; the attempt leaves the current
// selection untouched.
func (e *Engine) SelectInvoice(id string) error {
	e.mu.Lock()
	inv := e.findLocked(id)
	if inv == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	if inv.Status == domain.StatusPaid {
		e.mu.Unlock()
		e.notifier.Notify(NotifyWarning, "paid invoices cannot be modified")
		return fmt.Errorf("%w: invoice %s is paid", ErrInvalidState, id)
	}
	if e.selectedID == id {
		e.selectedID = ""
	} else {
		e.selectedID = id
	}
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceMenuGrid)
	return nil
}

// AddItem appends one unit of the menu item to the invoice. When the
// invoice already carries a line for the item the quantity is
// incremented instead of adding a duplicate line.
func (e *Engine) AddItem(invoiceID string, item domain.MenuItem) error {
	e.mu.Lock()
	inv, err := e.mutableLocked(invoiceID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	found := false
	for i := range inv.Items {
		if inv.Items[i].ID == item.ID {
			inv.Items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		inv.Items = append(inv.Items, domain.OrderLine{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: 1,
		})
	}
	e.applyTotals(inv)
	e.markDirtyLocked(&e.dirtyInvoices)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceMenuGrid)
	return nil
}

// AdjustItemQuantity changes a line's quantity by delta. A resulting
// quantity of zero or less removes the line entirely; zero-quantity
// lines are never kept.
func (e *Engine) AdjustItemQuantity(invoiceID string, lineID int, delta int) error {
	e.mu.Lock()
	inv, err := e.mutableLocked(invoiceID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	idx := -1
	for i := range inv.Items {
		if inv.Items[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: line %d on invoice %s", ErrNotFound, lineID, invoiceID)
	}
	if next := inv.Items[idx].Quantity + delta; next <= 0 {
		inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
	} else {
		inv.Items[idx].Quantity = next
	}
	e.applyTotals(inv)
	e.markDirtyLocked(&e.dirtyInvoices)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceMenuGrid)
	return nil
}

// RemoveItem deletes a line regardless of its quantity.
func (e *Engine) RemoveItem(invoiceID string, lineID int) error {
	e.mu.Lock()
	inv, err := e.mutableLocked(invoiceID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	idx := -1
	for i := range inv.Items {
		if inv.Items[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: line %d on invoice %s", ErrNotFound, lineID, invoiceID)
	}
	inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
	e.applyTotals(inv)
	e.markDirtyLocked(&e.dirtyInvoices)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceMenuGrid)
	return nil
}

// ApplyDiscount sets the invoice discount. discountType is "percent"
// or "fixed". Percent values must be within [0,100], fixed values must
// not be negative.
func (e *Engine) ApplyDiscount(invoiceID string, value float64, discountType string) error {
	switch discountType {
	case domain.DiscountPercent:
		if value < 0 || value > 100 {
			return fmt.Errorf("%w: percent discount must be within [0,100], got %v", ErrValidation, value)
		}
	case domain.DiscountFixed:
		if value < 0 {
			return fmt.Errorf("%w: fixed discount must not be negative, got %v", ErrValidation, value)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrValidation, discountType)
	}

	e.mu.Lock()
	inv, err := e.mutableLocked(invoiceID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	inv.Discount = value
	inv.DiscountType = discountType
	e.applyTotals(inv)
	e.markDirtyLocked(&e.dirtyInvoices)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceMenuGrid)
	return nil
}

// RemoveDiscount clears any discount on the invoice.
func (e *Engine) RemoveDiscount(invoiceID string) error {
	return e.ApplyDiscount(invoiceID, 0, domain.DiscountPercent)
}

// MarkPaid finalizes the invoice: the status flips to paid, the paid
// timestamp is stamped exactly once and an order record is appended to
// the shift history. Paying an already-paid invoice fails without
// producing a second history record.
func (e *Engine) MarkPaid(invoiceID string) error {
	e.mu.Lock()
	inv := e.findLocked(invoiceID)
	if inv == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
	}
	if inv.Status == domain.StatusPaid {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice %s is already paid", ErrInvalidState, invoiceID)
	}
	now := e.now()
	inv.Status = domain.StatusPaid
	inv.PaidAt = &now
	inv.UpdatedAt = now
	e.history = append(e.history, domain.OrderHistoryRecord{
		ID:        inv.ID,
		Items:     append([]domain.OrderLine(nil), inv.Items...),
		Total:     inv.Total,
		Timestamp: now,
		Status:    domain.StatusPaid,
	})
	if e.selectedID == invoiceID {
		e.selectedID = ""
	}
	e.markDirtyLocked(&e.dirtyInvoices, &e.dirtyHistory)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)
	e.notifier.Notify(NotifySuccess, fmt.Sprintf("invoice %s paid", invoiceID))
	return nil
}

// DeleteInvoice removes an invoice. Deleting a paid invoice also
// removes its order record from the shift history so totals stay
// consistent.
func (e *Engine) DeleteInvoice(invoiceID string) error {
	e.mu.Lock()
	idx := -1
	for i, inv := range e.invoices {
		if inv.ID == invoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice %s", ErrNotFound, invoiceID)
	}
	removed := e.invoices[idx]
	e.invoices = append(e.invoices[:idx], e.invoices[idx+1:]...)
	dirty := []*bool{&e.dirtyInvoices}
	if removed.Status == domain.StatusPaid {
		for i, rec := range e.history {
			if rec.ID == invoiceID {
				e.history = append(e.history[:i], e.history[i+1:]...)
				dirty = append(dirty, &e.dirtyHistory)
				break
			}
		}
	}
	if e.selectedID == invoiceID {
		e.selectedID = ""
	}
	e.markDirtyLocked(dirty...)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)
	return nil
}

// StartNewShift archives the finished shift and resets the live data.
// Orders recorded since the shift start (all orders when no shift was
// ever started) move into a shift archive together with the shift
// totals; archived orders leave the history and paid invoices leave
// the invoice list. The shift marker is set to now. The archive write
// happens synchronously and must succeed before anything is trimmed:
// a failed write leaves history, invoices and the marker untouched.
// The trimmed live data is persisted through the usual debounced save.
func (e *Engine) StartNewShift(ctx context.Context) (domain.ShiftArchive, error) {
	e.mu.Lock()
	now := e.now()
	var shiftOrders, rest []domain.OrderHistoryRecord
	for _, rec := range e.history {
		if e.shiftStart.IsZero() || !rec.Timestamp.Before(e.shiftStart) {
			shiftOrders = append(shiftOrders, rec)
		} else {
			rest = append(rest, rec)
		}
	}
	var revenue int64
	for _, rec := range shiftOrders {
		revenue += rec.Total
	}
	archive := domain.ShiftArchive{
		Info: domain.ShiftInfo{
			StartTime:    e.shiftStart,
			EndTime:      now,
			TotalOrders:  len(shiftOrders),
			TotalRevenue: revenue,
		},
		Orders: shiftOrders,
	}

	// The lock stays held across the write so the partition above
	// cannot go stale: no order can slip into the history between the
	// archive write and the trim below.
	if err := e.repo.AppendShiftArchive(ctx, archive); err != nil {
		e.mu.Unlock()
		e.notifier.Notify(NotifyError, "failed to archive shift, nothing was discarded")
		return domain.ShiftArchive{}, fmt.Errorf("archive shift: %w", err)
	}

	var remaining []*domain.Invoice
	for _, inv := range e.invoices {
		if inv.Status != domain.StatusPaid {
			remaining = append(remaining, inv)
		}
	}
	e.invoices = remaining
	e.history = rest
	e.shiftStart = now
	if e.selectedID != "" && e.findLocked(e.selectedID) == nil {
		e.selectedID = ""
	}
	e.markDirtyLocked(&e.dirtyInvoices, &e.dirtyHistory, &e.dirtyShift)
	e.mu.Unlock()

	e.invalidate(render.SurfaceInvoiceList, render.SurfaceInvoiceCounter, render.SurfaceMenuGrid)
	return archive, nil
}

// Invoices returns every live invoice in creation order.
func (e *Engine) Invoices() []domain.Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Invoice, 0, len(e.invoices))
	for _, inv := range e.invoices {
		out = append(out, inv.Clone())
	}
	return out
}

// Invoice returns one invoice by id.
func (e *Engine) Invoice(id string) (domain.Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inv := e.findLocked(id)
	if inv == nil {
		return domain.Invoice{}, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	return inv.Clone(), nil
}

// SelectedInvoiceID returns the current selection, empty when none.
func (e *Engine) SelectedInvoiceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedID
}

// SelectedInvoice returns the selected invoice, nil when nothing is
// selected.
func (e *Engine) SelectedInvoice() *domain.Invoice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return nil
	}
	inv := e.findLocked(e.selectedID)
	if inv == nil {
		return nil
	}
	clone := inv.Clone()
	return &clone
}

// CurrentDraftItems returns the order lines of the selected invoice,
// nil when nothing is selected. This is what the menu grid's order
// panel shows.
func (e *Engine) CurrentDraftItems() []domain.OrderLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return nil
	}
	inv := e.findLocked(e.selectedID)
	if inv == nil {
		return nil
	}
	return append([]domain.OrderLine(nil), inv.Items...)
}

// Counts reports the number of pending invoices and the overall count,
// the figures the invoice counter surface displays.
func (e *Engine) Counts() (pending, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, inv := range e.invoices {
		if inv.Status == domain.StatusPending {
			pending++
		}
	}
	return pending, len(e.invoices)
}

// History returns the order records of the running shift, oldest first.
func (e *Engine) History() []domain.OrderHistoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.OrderHistoryRecord, len(e.history))
	for i, rec := range e.history {
		out[i] = rec
		out[i].Items = append([]domain.OrderLine(nil), rec.Items...)
	}
	return out
}

// ShiftStart returns the running shift's start marker, zero when no
// shift rotation has happened yet.
func (e *Engine) ShiftStart() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shiftStart
}

// ShiftOrders returns the history records accrued since the shift
// start marker, the whole history when no shift was ever rotated.
func (e *Engine) ShiftOrders() []domain.OrderHistoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.OrderHistoryRecord, 0, len(e.history))
	for _, rec := range e.history {
		if e.shiftStart.IsZero() || !rec.Timestamp.Before(e.shiftStart) {
			clone := rec
			clone.Items = append([]domain.OrderLine(nil), rec.Items...)
			out = append(out, clone)
		}
	}
	return out
}

// Summary aggregates the history records within [from, to).
// A zero bound is open on that side.
func (e *Engine) Summary(from, to time.Time) domain.SalesSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	var s domain.SalesSummary
	for _, rec := range e.history {
		if !from.IsZero() && rec.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !rec.Timestamp.Before(to) {
			continue
		}
		s.Orders++
		s.Revenue += rec.Total
		for _, line := range rec.Items {
			s.ItemsSold += line.Quantity
		}
	}
	return s
}

// DailySummary aggregates the history records of the calendar day
// containing the given instant.
func (e *Engine) DailySummary(day time.Time) domain.SalesSummary {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return e.Summary(start, start.AddDate(0, 0, 1))
}

// ShiftArchives returns the stored shift archives, most recent last.
func (e *Engine) ShiftArchives(ctx context.Context) ([]domain.ShiftArchive, error) {
	archives, err := e.repo.ListShiftArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shift archives: %w", err)
	}
	sort.SliceStable(archives, func(i, j int) bool {
		return archives[i].Info.EndTime.Before(archives[j].Info.EndTime)
	})
	return archives, nil
}

// FlushPending cancels the debounce window and persists all dirty
// state right away.
func (e *Engine) FlushPending(ctx context.Context) error {
	e.saver.Stop()
	return e.persist(ctx)
}

// Close flushes pending saves and stops the engine's timers. The
// engine must not be used afterwards.
func (e *Engine) Close(ctx context.Context) error {
	err := e.FlushPending(ctx)
	e.saver.Stop()
	return err
}

// findLocked returns the live invoice with the given id. Callers hold e.mu.
func (e *Engine) findLocked(id string) *domain.Invoice {
	for _, inv := range e.invoices {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

// mutableLocked resolves an invoice that is allowed to change.
func (e *Engine) mutableLocked(id string) (*domain.Invoice, error) {
	inv := e.findLocked(id)
	if inv == nil {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	if inv.Status == domain.StatusPaid {
		e.notifier.Notify(NotifyWarning, "paid invoices cannot be modified")
		return nil, fmt.Errorf("%w: invoice %s is paid", ErrInvalidState, id)
	}
	return inv, nil
}

// markDirtyLocked flags datasets dirty and schedules the debounced
// save. Callers hold e.mu.
func (e *Engine) markDirtyLocked(flags ...*bool) {
	for _, f := range flags {
		*f = true
	}
	e.saver.Trigger()
}

func (e *Engine) invalidate(surfaces ...render.Surface) {
	if e.syncer != nil {
		e.syncer.Invalidate(surfaces...)
	}
}

// persistAsync runs on the debounce timer goroutine.
func (e *Engine) persistAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.persist(ctx); err != nil {
		log.Printf("[invoice] save: %v", err)
		e.notifier.Notify(NotifyError, "saving data failed, will retry on next change")
	}
}

// persist writes every dirty dataset. On failure the dataset stays
// dirty so the next debounced save retries it.
func (e *Engine) persist(ctx context.Context) error {
	e.mu.Lock()
	saveInvoices := e.dirtyInvoices
	saveHistory := e.dirtyHistory
	saveShift := e.dirtyShift
	e.dirtyInvoices, e.dirtyHistory, e.dirtyShift = false, false, false

	var invoices []domain.Invoice
	if saveInvoices {
		invoices = make([]domain.Invoice, 0, len(e.invoices))
		for _, inv := range e.invoices {
			invoices = append(invoices, inv.Clone())
		}
	}
	var history []domain.OrderHistoryRecord
	if saveHistory {
		history = make([]domain.OrderHistoryRecord, len(e.history))
		copy(history, e.history)
	}
	shiftStart := e.shiftStart
	e.mu.Unlock()

	var errs []error
	if saveInvoices {
		if err := e.repo.SaveInvoices(ctx, invoices); err != nil {
			errs = append(errs, fmt.Errorf("save invoices: %w", err))
			e.remarkDirty(&e.dirtyInvoices)
		}
	}
	if saveHistory {
		if err := e.repo.SaveOrderHistory(ctx, history); err != nil {
			errs = append(errs, fmt.Errorf("save order history: %w", err))
			e.remarkDirty(&e.dirtyHistory)
		}
	}
	if saveShift {
		if err := e.repo.SaveShiftStart(ctx, shiftStart); err != nil {
			errs = append(errs, fmt.Errorf("save shift start: %w", err))
			e.remarkDirty(&e.dirtyShift)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) remarkDirty(flag *bool) {
	e.mu.Lock()
	*flag = true
	e.mu.Unlock()
}
