package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/store"
	"balancoffee/pos/internal/store/memory"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, kind+": "+message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// flakyRepo wraps the in-memory store and fails saves on demand.
type flakyRepo struct {
	*memory.Store
	mu       sync.Mutex
	failSave bool
}

func (r *flakyRepo) setFailSave(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave = v
}

func (r *flakyRepo) SaveInvoices(ctx context.Context, invoices []domain.Invoice) error {
	r.mu.Lock()
	fail := r.failSave
	r.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: connection refused", store.ErrPersistence)
	}
	return r.Store.SaveInvoices(ctx, invoices)
}

func newTestEngine(t *testing.T, repo store.Repository) (*Engine, *recordingNotifier) {
	t.Helper()
	if repo == nil {
		repo = memory.New()
	}
	notifier := &recordingNotifier{}
	// A long debounce window keeps background saves out of the way;
	// tests flush explicitly.
	e := New(repo, nil, notifier, time.Minute)
	seq := 0
	e.newID = func() string {
		seq++
		return fmt.Sprintf("INV-%03d", seq)
	}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	e.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	t.Cleanup(func() { e.Close(context.Background()) })
	return e, notifier
}

func mustCreate(t *testing.T, e *Engine, initial *domain.MenuItem) domain.Invoice {
	t.Helper()
	inv, err := e.CreateInvoice(initial)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return inv
}

func TestCreateInvoiceSelectsIt(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	item := domain.MenuItem{ID: 1, Name: "Cà Phê Đen", Price: 25000}
	inv := mustCreate(t, e, &item)

	if inv.Status != domain.StatusPending {
		t.Fatalf("status = %q, want %q", inv.Status, domain.StatusPending)
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 1 {
		t.Fatalf("unexpected initial items: %+v", inv.Items)
	}
	if inv.Total != 25000 || inv.Subtotal != 25000 {
		t.Fatalf("totals = %d/%d, want 25000/25000", inv.Subtotal, inv.Total)
	}
	if got := e.SelectedInvoiceID(); got != inv.ID {
		t.Fatalf("selected = %q, want %q", got, inv.ID)
	}
	if pending, total := e.Counts(); pending != 1 || total != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", pending, total)
	}
}

func TestSelectInvoiceToggles(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, nil)

	if err := e.SelectInvoice(inv.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := e.SelectInvoice(inv.ID); err != nil {
		t.Fatalf("toggle select: %v", err)
	}
	if got := e.SelectedInvoiceID(); got != "" {
		t.Fatalf("selection not cleared, still %q", got)
	}
}

func TestSelectPaidInvoiceLeavesSelection(t *testing.T) {
	e, notifier := newTestEngine(t, nil)
	paid := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(paid.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	other := mustCreate(t, e, nil)

	before := notifier.count()
	err := e.SelectInvoice(paid.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if got := e.SelectedInvoiceID(); got != other.ID {
		t.Fatalf("selection changed to %q, want %q", got, other.ID)
	}
	if notifier.count() != before+1 {
		t.Fatalf("expected one warning notification")
	}
}

func TestSelectMissingInvoice(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	if err := e.SelectInvoice("INV-999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddItemMergesDuplicateLines(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, nil)
	item := domain.MenuItem{ID: 3, Name: "Bạc Xỉu", Price: 30000}

	if err := e.AddItem(inv.ID, item); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := e.AddItem(inv.ID, item); err != nil {
		t.Fatalf("second add: %v", err)
	}

	got, err := e.Invoice(inv.ID)
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(got.Items))
	}
	if got.Items[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", got.Items[0].Quantity)
	}
	if got.Total != 60000 {
		t.Fatalf("total = %d, want 60000", got.Total)
	}
}

func TestAdjustItemQuantity(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 20000})

	if err := e.AdjustItemQuantity(inv.ID, 1, 2); err != nil {
		t.Fatalf("adjust quantity: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if got.Items[0].Quantity != 3 || got.Total != 60000 {
		t.Fatalf("after +2: qty=%d total=%d", got.Items[0].Quantity, got.Total)
	}

	// A delta that lands on zero or below removes the line, never
	// keeping it at quantity zero.
	if err := e.AdjustItemQuantity(inv.ID, 1, -3); err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	got, _ = e.Invoice(inv.ID)
	if len(got.Items) != 0 {
		t.Fatalf("line not removed: %+v", got.Items)
	}
	if got.Total != 0 || got.Subtotal != 0 {
		t.Fatalf("totals = %d/%d, want 0/0", got.Subtotal, got.Total)
	}
}

func TestAdjustItemQuantityBelowZeroRemoves(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 20000})

	if err := e.AdjustItemQuantity(inv.ID, 1, -5); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if len(got.Items) != 0 {
		t.Fatalf("line survived a below-zero delta: %+v", got.Items)
	}
}

func TestAdjustItemQuantityMissingLine(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, nil)
	if err := e.AdjustItemQuantity(inv.ID, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveItem(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 20000})

	if err := e.RemoveItem(inv.ID, 1); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if len(got.Items) != 0 || got.Total != 0 {
		t.Fatalf("line not removed: %+v", got)
	}
	if err := e.RemoveItem(inv.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removing an absent line err = %v, want ErrNotFound", err)
	}
}

func TestApplyDiscountValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 50000})

	cases := []struct {
		value float64
		typ   string
	}{
		{-5, domain.DiscountPercent},
		{120, domain.DiscountPercent},
		{-1000, domain.DiscountFixed},
		{10, "amount"},
		{10, "bogus"},
	}
	for _, c := range cases {
		if err := e.ApplyDiscount(inv.ID, c.value, c.typ); !errors.Is(err, ErrValidation) {
			t.Fatalf("ApplyDiscount(%v, %q) err = %v, want ErrValidation", c.value, c.typ, err)
		}
	}

	got, _ := e.Invoice(inv.ID)
	if got.Discount != 0 || got.Total != 50000 {
		t.Fatalf("rejected discount mutated invoice: %+v", got)
	}
}

func TestApplyFixedDiscount(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 50000})

	if err := e.ApplyDiscount(inv.ID, 5000, domain.DiscountFixed); err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if got.DiscountType != domain.DiscountFixed {
		t.Fatalf("discount type = %q, want %q", got.DiscountType, domain.DiscountFixed)
	}
	if got.Total != 45000 {
		t.Fatalf("total = %d, want 45000", got.Total)
	}
}

func TestDiscountAndPaymentScenario(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, nil)
	item := domain.MenuItem{ID: 1, Name: "Cà Phê Đen", Price: 25000}

	if err := e.AddItem(inv.ID, item); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.AddItem(inv.ID, item); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if got.Total != 50000 {
		t.Fatalf("total = %d, want 50000", got.Total)
	}

	if err := e.ApplyDiscount(inv.ID, 10, domain.DiscountPercent); err != nil {
		t.Fatalf("discount: %v", err)
	}
	got, _ = e.Invoice(inv.ID)
	if got.Total != 45000 {
		t.Fatalf("total after discount = %d, want 45000", got.Total)
	}

	if err := e.RemoveDiscount(inv.ID); err != nil {
		t.Fatalf("remove discount: %v", err)
	}
	got, _ = e.Invoice(inv.ID)
	if got.Total != got.Subtotal || got.Total != 50000 {
		t.Fatalf("total after removing discount = %d, want 50000", got.Total)
	}

	if err := e.ApplyDiscount(inv.ID, 10, domain.DiscountPercent); err != nil {
		t.Fatalf("discount: %v", err)
	}
	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	history := e.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].ID != inv.ID || history[0].Total != 45000 {
		t.Fatalf("history record = %+v, want id %s total 45000", history[0], inv.ID)
	}
	if history[0].Status != domain.StatusPaid {
		t.Fatalf("history status = %q", history[0].Status)
	}
}

func TestMarkPaidOnlyOnce(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})

	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("first MarkPaid: %v", err)
	}
	got, _ := e.Invoice(inv.ID)
	if got.PaidAt == nil {
		t.Fatalf("paidAt not set")
	}
	firstPaidAt := *got.PaidAt

	if err := e.MarkPaid(inv.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second MarkPaid err = %v, want ErrInvalidState", err)
	}
	got, _ = e.Invoice(inv.ID)
	if !got.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("paidAt changed on repeated payment")
	}
	if len(e.History()) != 1 {
		t.Fatalf("repeated payment produced extra history records")
	}
	if got := e.SelectedInvoiceID(); got != "" {
		t.Fatalf("payment should clear the selection, still %q", got)
	}
}

func TestDeletePaidInvoiceRemovesItsHistoryRecord(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	first := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	second := mustCreate(t, e, &domain.MenuItem{ID: 2, Name: "B", Price: 20000})
	if err := e.MarkPaid(first.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := e.MarkPaid(second.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if err := e.DeleteInvoice(first.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	if _, err := e.Invoice(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted invoice still resolvable: %v", err)
	}
	history := e.History()
	if len(history) != 1 || history[0].ID != second.ID {
		t.Fatalf("history = %+v, want only %s", history, second.ID)
	}
}

func TestDeletePendingInvoiceKeepsHistory(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	paid := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(paid.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	pending := mustCreate(t, e, nil)

	if err := e.DeleteInvoice(pending.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if len(e.History()) != 1 {
		t.Fatalf("deleting a pending invoice touched the history")
	}
}

func TestLoadRecalculatesStaleTotals(t *testing.T) {
	repo := memory.New()
	stale := domain.Invoice{
		ID:           "INV-OLD",
		Items:        []domain.OrderLine{{ID: 1, Name: "A", Price: 25000, Quantity: 2}},
		Subtotal:     1,
		Discount:     10,
		DiscountType: domain.DiscountPercent,
		Total:        99999,
		Status:       domain.StatusPending,
		CreatedAt:    time.Now(),
	}
	if err := repo.SaveInvoices(context.Background(), []domain.Invoice{stale}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e, _ := newTestEngine(t, repo)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, err := e.Invoice("INV-OLD")
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if got.Subtotal != 50000 || got.Total != 45000 {
		t.Fatalf("totals = %d/%d, want 50000/45000", got.Subtotal, got.Total)
	}

	// The corrected figures must reach the store once flushed.
	if err := e.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}
	persisted, err := repo.LoadInvoices(context.Background())
	if err != nil {
		t.Fatalf("LoadInvoices: %v", err)
	}
	if len(persisted) != 1 || persisted[0].Total != 45000 {
		t.Fatalf("persisted = %+v, want total 45000", persisted)
	}
}

func TestStartNewShiftArchivesAndResets(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	first := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 25000})
	second := mustCreate(t, e, &domain.MenuItem{ID: 2, Name: "B", Price: 30000})
	keep := mustCreate(t, e, &domain.MenuItem{ID: 3, Name: "C", Price: 15000})
	if err := e.MarkPaid(first.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := e.MarkPaid(second.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	archive, err := e.StartNewShift(ctx)
	if err != nil {
		t.Fatalf("StartNewShift: %v", err)
	}
	if archive.Info.TotalOrders != 2 {
		t.Fatalf("archived orders = %d, want 2", archive.Info.TotalOrders)
	}
	if archive.Info.TotalRevenue != 55000 {
		t.Fatalf("archived revenue = %d, want 55000", archive.Info.TotalRevenue)
	}
	if archive.Info.EndTime.IsZero() {
		t.Fatalf("archive end time not stamped")
	}

	if len(e.History()) != 0 {
		t.Fatalf("history not cleared after rotation")
	}
	invoices := e.Invoices()
	if len(invoices) != 1 || invoices[0].ID != keep.ID {
		t.Fatalf("paid invoices not filtered, left %+v", invoices)
	}
	if e.ShiftStart().IsZero() {
		t.Fatalf("shift marker not reset")
	}

	stored, err := e.ShiftArchives(ctx)
	if err != nil {
		t.Fatalf("ShiftArchives: %v", err)
	}
	if len(stored) != 1 || stored[0].Info.TotalRevenue != 55000 {
		t.Fatalf("stored archives = %+v", stored)
	}
}

func TestStartNewShiftSplitsOnMarker(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := e.StartNewShift(ctx); err != nil {
		t.Fatalf("first rotation: %v", err)
	}

	inv2 := mustCreate(t, e, &domain.MenuItem{ID: 2, Name: "B", Price: 20000})
	if err := e.MarkPaid(inv2.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	archive, err := e.StartNewShift(ctx)
	if err != nil {
		t.Fatalf("second rotation: %v", err)
	}
	if archive.Info.TotalOrders != 1 || archive.Info.TotalRevenue != 20000 {
		t.Fatalf("second archive = %+v, want 1 order for 20000", archive.Info)
	}
}

// archiveFailRepo wraps the in-memory store and refuses archive writes.
type archiveFailRepo struct {
	*memory.Store
}

func (r *archiveFailRepo) AppendShiftArchive(ctx context.Context, archive domain.ShiftArchive) error {
	return fmt.Errorf("%w: disk full", store.ErrPersistence)
}

func TestStartNewShiftKeepsStateWhenArchiveFails(t *testing.T) {
	e, notifier := newTestEngine(t, &archiveFailRepo{Store: memory.New()})
	ctx := context.Background()

	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	marker := e.ShiftStart()

	if _, err := e.StartNewShift(ctx); !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("StartNewShift err = %v, want ErrPersistence", err)
	}

	// Nothing may be discarded when the archive write fails.
	if got := e.History(); len(got) != 1 {
		t.Fatalf("history = %d records after failed archive, want 1", len(got))
	}
	invoices := e.Invoices()
	if len(invoices) != 1 || invoices[0].ID != inv.ID {
		t.Fatalf("paid invoice dropped after failed archive: %+v", invoices)
	}
	if !e.ShiftStart().Equal(marker) {
		t.Fatalf("shift marker moved from %v to %v", marker, e.ShiftStart())
	}
	notifier.mu.Lock()
	last := notifier.messages[len(notifier.messages)-1]
	notifier.mu.Unlock()
	if !strings.HasPrefix(last, NotifyError+":") {
		t.Fatalf("last notification = %q, want an error", last)
	}
}

func TestPersistRetriesAfterFailure(t *testing.T) {
	repo := &flakyRepo{Store: memory.New()}
	e, _ := newTestEngine(t, repo)

	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	repo.setFailSave(true)

	err := e.FlushPending(context.Background())
	if !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("flush err = %v, want ErrPersistence", err)
	}

	// In-memory state stays authoritative despite the failed save.
	if _, err := e.Invoice(inv.ID); err != nil {
		t.Fatalf("invoice lost after failed save: %v", err)
	}

	repo.setFailSave(false)
	if err := e.FlushPending(context.Background()); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	persisted, err := repo.LoadInvoices(context.Background())
	if err != nil {
		t.Fatalf("LoadInvoices: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != inv.ID {
		t.Fatalf("retry did not persist the invoice: %+v", persisted)
	}
}

func TestCurrentDraftItems(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if items := e.CurrentDraftItems(); items != nil {
		t.Fatalf("expected nil draft items with no selection, got %+v", items)
	}

	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 20000})
	items := e.CurrentDraftItems()
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("draft items = %+v, want the created invoice's line", items)
	}

	// Mutating the returned slice must not touch the engine's state.
	items[0].Quantity = 99
	got, _ := e.Invoice(inv.ID)
	if got.Items[0].Quantity != 1 {
		t.Fatalf("draft items aliased engine state")
	}
}

func TestShiftOrdersScopedToMarker(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if len(e.ShiftOrders()) != 1 {
		t.Fatalf("expected the paid order in the open shift")
	}

	if _, err := e.StartNewShift(ctx); err != nil {
		t.Fatalf("StartNewShift: %v", err)
	}
	if got := e.ShiftOrders(); len(got) != 0 {
		t.Fatalf("rotated shift still reports orders: %+v", got)
	}
}

func TestSummaryWindows(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	for i := 0; i < 3; i++ {
		inv := mustCreate(t, e, &domain.MenuItem{ID: i + 1, Name: "X", Price: 10000})
		if err := e.MarkPaid(inv.ID); err != nil {
			t.Fatalf("MarkPaid: %v", err)
		}
	}

	all := e.Summary(time.Time{}, time.Time{})
	if all.Orders != 3 || all.Revenue != 30000 || all.ItemsSold != 3 {
		t.Fatalf("summary = %+v, want 3 orders, 30000 revenue, 3 items", all)
	}

	day := e.DailySummary(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	if day.Orders != 3 {
		t.Fatalf("daily summary = %+v, want all 3 orders", day)
	}
	empty := e.DailySummary(time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC))
	if empty.Orders != 0 {
		t.Fatalf("next day summary = %+v, want empty", empty)
	}
}

func TestMutatingPaidInvoiceFails(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	inv := mustCreate(t, e, &domain.MenuItem{ID: 1, Name: "A", Price: 10000})
	if err := e.MarkPaid(inv.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	item := domain.MenuItem{ID: 2, Name: "B", Price: 5000}
	if err := e.AddItem(inv.ID, item); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("AddItem on paid err = %v", err)
	}
	if err := e.ApplyDiscount(inv.ID, 10, domain.DiscountPercent); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("ApplyDiscount on paid err = %v", err)
	}
	if err := e.AdjustItemQuantity(inv.ID, 1, 5); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("AdjustItemQuantity on paid err = %v", err)
	}

	got, _ := e.Invoice(inv.ID)
	if got.Total != 10000 || len(got.Items) != 1 {
		t.Fatalf("paid invoice mutated: %+v", got)
	}
}
