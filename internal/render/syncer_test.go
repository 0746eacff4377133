package render

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBurstFlushesUnionOnce(t *testing.T) {
	s := NewSyncer(time.Hour)
	t.Cleanup(s.Stop)

	var list, grid, counter atomic.Int32
	s.Register(SurfaceInvoiceList, func() error { list.Add(1); return nil })
	s.Register(SurfaceMenuGrid, func() error { grid.Add(1); return nil })
	s.Register(SurfaceInvoiceCounter, func() error { counter.Add(1); return nil })

	s.Invalidate(SurfaceInvoiceList, SurfaceMenuGrid)
	s.Invalidate(SurfaceInvoiceList)
	s.Invalidate(SurfaceInvoiceCounter)

	got := s.Pending()
	if len(got) != 3 {
		t.Fatalf("expected union of three tags pending, got %v", got)
	}

	s.FlushNow()

	if list.Load() != 1 || grid.Load() != 1 || counter.Load() != 1 {
		t.Fatalf("expected each surface rebuilt exactly once, got list=%d grid=%d counter=%d",
			list.Load(), grid.Load(), counter.Load())
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("expected pending set cleared after flush, got %v", s.Pending())
	}
}

func TestFlushAfterWindowElapsed(t *testing.T) {
	s := NewSyncer(20 * time.Millisecond)
	t.Cleanup(s.Stop)

	var list atomic.Int32
	s.Register(SurfaceInvoiceList, func() error { list.Add(1); return nil })

	s.Invalidate(SurfaceInvoiceList)

	deadline := time.Now().Add(2 * time.Second)
	for list.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if list.Load() != 1 {
		t.Fatalf("expected debounced flush to run, got %d", list.Load())
	}
}

func TestRebuildErrorDoesNotBlockOtherSurfaces(t *testing.T) {
	s := NewSyncer(time.Hour)
	t.Cleanup(s.Stop)

	var counter atomic.Int32
	s.Register(SurfaceInvoiceList, func() error { return errors.New("boom") })
	s.Register(SurfaceMenuGrid, func() error { panic("grid exploded") })
	s.Register(SurfaceInvoiceCounter, func() error { counter.Add(1); return nil })

	s.Invalidate(SurfaceInvoiceList, SurfaceMenuGrid, SurfaceInvoiceCounter)
	s.FlushNow()

	if counter.Load() != 1 {
		t.Fatalf("expected counter surface to flush despite failures, got %d", counter.Load())
	}
}

func TestInvalidateUnregisteredSurfaceIsHarmless(t *testing.T) {
	s := NewSyncer(time.Hour)
	t.Cleanup(s.Stop)

	s.Invalidate(SurfaceMenuGrid)
	s.FlushNow()
}

func TestMenuGridGuardSkipsUnchangedView(t *testing.T) {
	var g MenuGridGuard

	view := MenuGridView{Category: "cafe-viet", SelectedInvoiceID: "INV-1", ItemCount: 4}
	if !g.ShouldRebuild(view) {
		t.Fatalf("first view must rebuild")
	}
	if g.ShouldRebuild(view) {
		t.Fatalf("identical view must be skipped")
	}

	view.ItemCount = 5
	if !g.ShouldRebuild(view) {
		t.Fatalf("changed item count must rebuild")
	}

	view.SelectedInvoiceID = ""
	if !g.ShouldRebuild(view) {
		t.Fatalf("changed selection must rebuild")
	}

	g.Reset()
	if !g.ShouldRebuild(view) {
		t.Fatalf("reset guard must rebuild")
	}
}
