// Package redis persists the logical records as JSON values, one key per
// collection, namespaced so several terminals can share one server
// without colliding. This is the closest server-side analogue of the
// original terminal's key-value storage.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/store"
)

type Store struct {
	client    *goredis.Client
	namespace string
}

func New(addr string, password string, db int, namespace string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if namespace == "" {
		namespace = "balancoffee"
	}
	return &Store{client: client, namespace: namespace}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.namespace + ":" + name
}

func (s *Store) getJSON(ctx context.Context, name string, dest any) (bool, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", store.ErrPersistence, name, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", store.ErrPersistence, name, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", store.ErrPersistence, name, err)
	}
	if err := s.client.Set(ctx, s.key(name), payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", store.ErrPersistence, name, err)
	}
	return nil
}

func (s *Store) LoadInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	if _, err := s.getJSON(ctx, store.KeyInvoices, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Store) SaveInvoices(ctx context.Context, invoices []domain.Invoice) error {
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	return s.setJSON(ctx, store.KeyInvoices, invoices)
}

func (s *Store) LoadOrderHistory(ctx context.Context) ([]domain.OrderHistoryRecord, error) {
	var records []domain.OrderHistoryRecord
	if _, err := s.getJSON(ctx, store.KeyOrderHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) SaveOrderHistory(ctx context.Context, records []domain.OrderHistoryRecord) error {
	if records == nil {
		records = []domain.OrderHistoryRecord{}
	}
	return s.setJSON(ctx, store.KeyOrderHistory, records)
}

func (s *Store) LoadShiftStart(ctx context.Context) (time.Time, error) {
	var raw string
	found, err := s.getJSON(ctx, store.KeyShiftStart, &raw)
	if err != nil || !found {
		return time.Time{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse shift start: %v", store.ErrPersistence, err)
	}
	return at, nil
}

func (s *Store) SaveShiftStart(ctx context.Context, at time.Time) error {
	return s.setJSON(ctx, store.KeyShiftStart, at.UTC().Format(time.RFC3339Nano))
}

func (s *Store) AppendShiftArchive(ctx context.Context, archive domain.ShiftArchive) error {
	archives, err := s.ListShiftArchives(ctx)
	if err != nil {
		return err
	}
	archives = append(archives, archive)
	return s.setJSON(ctx, store.KeyArchivedShifts, archives)
}

func (s *Store) ListShiftArchives(ctx context.Context) ([]domain.ShiftArchive, error) {
	var archives []domain.ShiftArchive
	if _, err := s.getJSON(ctx, store.KeyArchivedShifts, &archives); err != nil {
		return nil, err
	}
	return archives, nil
}
