// Package postgres persists the logical records in a single keyed table
// of JSON payloads. The engine treats storage as two JSON collections, so
// a relational schema per entity would buy nothing here; the table mirrors
// the key-value contract instead.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"balancoffee/pos/internal/domain"
	"balancoffee/pos/internal/store"
)

type Store struct {
	db        *sql.DB
	namespace string
}

func New(ctx context.Context, databaseURL string, namespace string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if namespace == "" {
		namespace = "balancoffee"
	}
	s := &Store{db: db, namespace: namespace}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pos_records (
			record_key text PRIMARY KEY,
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", store.ErrPersistence, err)
	}
	return nil
}

func (s *Store) key(name string) string {
	return s.namespace + ":" + name
}

func (s *Store) getJSON(ctx context.Context, name string, dest any) (bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM pos_records WHERE record_key = $1
	`, s.key(name)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", store.ErrPersistence, name, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", store.ErrPersistence, name, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", store.ErrPersistence, name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pos_records (record_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (record_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, s.key(name), payload)
	if err != nil {
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
