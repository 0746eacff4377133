// Package memory is the in-process repository used when no durable
// backend is configured, and the default repository in tests. Snapshots
// are cloned on both save and load so the engine and the store never
// alias the same slices.
package memory

import (
	"context"
	"sync"
	"time"

	"balancoffee/pos/internal/domain"
)

type Store struct {
	mu         sync.RWMutex
	invoices   []domain.Invoice
	history    []domain.OrderHistoryRecord
	shiftStart time.Time
	archives   []domain.ShiftArchive
}

func New() *Store {
	return &Store{}
}

func (s *Store) LoadInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInvoices(s.invoices), nil
}

func (s *Store) SaveInvoices(_ context.Context, invoices []domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = cloneInvoices(invoices)
	return nil
}

func (s *Store) LoadOrderHistory(_ context.Context) ([]domain.OrderHistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneHistory(s.history), nil
}

func (s *Store) SaveOrderHistory(_ context.Context, records []domain.OrderHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = cloneHistory(records)
	return nil
}

func (s *Store) LoadShiftStart(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shiftStart, nil
}

func (s *Store) SaveShiftStart(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shiftStart = at
	return nil
}

func (s *Store) AppendShiftArchive(_ context.Context, archive domain.ShiftArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	archive.Orders = cloneHistory(archive.Orders)
	s.archives = append(s.archives, archive)
	return nil
}

func (s *Store) ListShiftArchives(_ context.Context) ([]domain.ShiftArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ShiftArchive, 0, len(s.archives))
	for _, archive := range s.archives {
		copied := archive
		copied.Orders = cloneHistory(archive.Orders)
		out = append(out, copied)
	}
	return out, nil
}

func cloneInvoices(in []domain.Invoice) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(in))
	for _, inv := range in {
		out = append(out, inv.Clone())
	}
	return out
}

func cloneHistory(in []domain.OrderHistoryRecord) []domain.OrderHistoryRecord {
	out := make([]domain.OrderHistoryRecord, 0, len(in))
	for _, rec := range in {
		copied := rec
		copied.Items = make([]domain.OrderLine, len(rec.Items))
		copy(copied.Items, rec.Items)
		out = append(out, copied)
	}
	return out
}
