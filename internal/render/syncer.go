// Package render coalesces engine state changes into a minimal set of UI
// rebuilds. Mutations report which surfaces they dirtied; the syncer
// accumulates those tags and flushes each tagged surface's rebuild
// routine at most once per coalescing window.
package render

import (
	"fmt"
	"log"
	"sync"
	"time"

	"balancoffee/pos/internal/sched"
)

// Surface identifies one redrawable region of the presentation shell.
type Surface string

const (
	SurfaceInvoiceList    Surface = "invoiceList"
	SurfaceMenuGrid       Surface = "menuGrid"
	SurfaceInvoiceCounter Surface = "invoiceCounter"
)

// flushOrder fixes the rebuild sequence so a flush is deterministic.
var flushOrder = []Surface{SurfaceInvoiceList, SurfaceMenuGrid, SurfaceInvoiceCounter}

// RebuildFunc redraws one surface. It is supplied by the presentation
// shell and may fail; a failure on one surface never blocks the others.
type RebuildFunc func() error

// Syncer batches surface invalidations behind a debounce window measured
// from the last reported mutation: a burst of N mutations produces one
// flush covering the union of their tags.
type Syncer struct {
	mu       sync.Mutex
	rebuilds map[Surface]RebuildFunc
	pending  map[Surface]bool
	deb      *sched.Debouncer
}

func NewSyncer(window time.Duration) *Syncer {
	s := &Syncer{
		rebuilds: make(map[Surface]RebuildFunc, len(flushOrder)),
		pending:  make(map[Surface]bool, len(flushOrder)),
	}
	s.deb = sched.NewDebouncer(window, s.flush)
	return s
}

// Register installs the rebuild routine for a surface. Unregistered
// surfaces are flushed as no-ops.
func (s *Syncer) Register(surface Surface, fn RebuildFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilds[surface] = fn
}

// Invalidate marks surfaces stale and (re)schedules the flush.
func (s *Syncer) Invalidate(surfaces ...Surface) {
	if len(surfaces) == 0 {
		return
	}

	s.mu.Lock()
	for _, surface := range surfaces {
		s.pending[surface] = true
	}
	s.mu.Unlock()

	s.deb.Trigger()
}

// FlushNow forces a pending flush without waiting out the window.
func (s *Syncer) FlushNow() {
	s.deb.Flush()
}

// Stop cancels any scheduled flush.
func (s *Syncer) Stop() {
	s.deb.Stop()
}

// Pending returns the currently accumulated surface tags in flush order.
func (s *Syncer) Pending() []Surface {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Surface, 0, len(s.pending))
	for _, surface := range flushOrder {
		if s.pending[surface] {
			out = append(out, surface)
		}
	}
	return out
}

func (s *Syncer) flush() {
	s.mu.Lock()
	tagged := make([]Surface, 0, len(s.pending))
	for _, surface := range flushOrder {
		if s.pending[surface] {
			tagged = append(tagged, surface)
		}
	}
	s.pending = make(map[Surface]bool, len(flushOrder))
	rebuilds := make(map[Surface]RebuildFunc, len(tagged))
	for _, surface := range tagged {
		rebuilds[surface] = s.rebuilds[surface]
	}
	s.mu.Unlock()

	for _, surface := range tagged {
		fn := rebuilds[surface]
		if fn == nil {
			continue
		}
		if err := safeRebuild(surface, fn); err != nil {
			log.Printf("[render] rebuild %s failed: %v", surface, err)
		}
	}
}

// safeRebuild isolates one surface: an error or panic is reported and the
// remaining tagged surfaces still flush.
func safeRebuild(surface Surface, fn RebuildFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s rebuild: %v", surface, r)
		}
	}()
	return fn()
}

// MenuGridView is the state triple the menu grid depends on. When it is
// unchanged since the last rebuild, the grid does not need redrawing.
type MenuGridView struct {
	Category          string
	SelectedInvoiceID string
	ItemCount         int
}

// MenuGridGuard skips menu-grid rebuilds when the view is unchanged.
type MenuGridGuard struct {
	mu   sync.Mutex
	last *MenuGridView
}

// ShouldRebuild reports whether the view differs from the last rebuilt
// one, recording it as the new baseline when it does.
func (g *MenuGridGuard) ShouldRebuild(view MenuGridView) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last != nil && *g.last == view {
		return false
	}
	g.last = &view
	return true
}

// Reset forgets the baseline so the next check always rebuilds.
func (g *MenuGridGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = nil
}
