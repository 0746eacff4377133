package main

import (
	"context"
	"testing"
	"time"

	"balancoffee/pos/internal/catalog"
	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/invoice"
	"balancoffee/pos/internal/render"
	"balancoffee/pos/internal/store/memory"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		menu:   catalog.Default(),
		syncer: render.NewSyncer(10 * time.Millisecond),
	}
	e.engine = invoice.New(memory.New(), e.syncer, invoice.NoopNotifier{}, time.Minute)
	t.Cleanup(func() { e.close(context.Background()) })
	return e
}

func TestSessionOrderFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	steps := [][]string{
		{"new"},
		{"add", "1"},
		{"add", "1"},
		{"discount", "10"},
		{"pay"},
	}
	for _, step := range steps {
		if err := e.dispatch(ctx, step[0], step[1:]); err != nil {
			t.Fatalf("dispatch %v: %v", step, err)
		}
	}

	history := e.engine.History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	// Two units of item 1 at 25000 minus 10 percent.
	if history[0].Total != 45000 {
		t.Fatalf("paid total = %d, want 45000", history[0].Total)
	}
}

func TestDispatchRequiresSelection(t *testing.T) {
	e := newTestEnv(t)
	if err := e.dispatch(context.Background(), "add", []string{"1"}); err == nil {
		t.Fatalf("expected error without a selected invoice")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	e := newTestEnv(t)
	if err := e.dispatch(context.Background(), "frobnicate", nil); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

func TestTargetInvoicePrefersLatestPending(t *testing.T) {
	e := newTestEnv(t)

	first, err := e.engine.CreateInvoice(nil)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if err := e.engine.MarkPaid(first.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	second, err := e.engine.CreateInvoice(nil)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	invoices := e.engine.Invoices()
	var latest domain.Invoice
	for i := len(invoices) - 1; i >= 0; i-- {
		if invoices[i].Status == domain.StatusPending {
			latest = invoices[i]
			break
		}
	}
	if latest.ID != second.ID {
		t.Fatalf("latest pending = %q, want %q", latest.ID, second.ID)
	}
}
