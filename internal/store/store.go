package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/types"
)

// Gateway persists the records of each tab. Writes replace the whole entry.
type Gateway interface {
	// Get returns the stored records for a tab; ok is false when nothing was stored.
	Get(ctx context.Context, tabKey string) (records []types.Record, ok bool, err error)
	Set(ctx context.Context, tabKey string, records []types.Record) error
	// SetAll replaces several tabs at once. Either every entry is written or none is.
	SetAll(ctx context.Context, entries []Entry) error
}

// Entry is one tab's records in a SetAll batch.
type Entry struct {
	TabKey  string
	Records []types.Record
}

const schema = `
CREATE TABLE IF NOT EXISTS dashboard_entries (
	entry_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore is a key-value Gateway on a single SQL table. Keys follow
// "<namespace>-<tabKey>" and values are JSON arrays of records.
type SQLStore struct {
	db        *sqlx.DB
	namespace string
}

// Open connects to sqlite or postgres and prepares the schema.
func Open(driver, dsn, namespace string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	if driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, namespace)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, namespace string) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		return nil, errors.WithCode(errors.CodeReadFailure, errors.Wrap(err, "failed to ping database"))
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return &SQLStore{db: db, namespace: namespace}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Key is the storage key for a tab.
func (s *SQLStore) Key(tabKey string) string {
	return fmt.Sprintf("%s-%s", s.namespace, tabKey)
}

func (s *SQLStore) Get(ctx context.Context, tabKey string) ([]types.Record, bool, error) {
	var payload string
	query := s.db.Rebind(`SELECT payload FROM dashboard_entries WHERE entry_key = ?`)
	if err := s.db.GetContext(ctx, &payload, query, s.Key(tabKey)); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to load %s", s.Key(tabKey))
	}

	var records []types.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, false, errors.Wrapf(err, "corrupt entry %s", s.Key(tabKey))
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, true, nil
}

const upsert = `
	INSERT INTO dashboard_entries (entry_key, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (entry_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

func (s *SQLStore) Set(ctx context.Context, tabKey string, records []types.Record) error {
	return s.write(ctx, s.db, tabKey, records, time.Now().UTC())
}

// SetAll writes every entry in one transaction, in order.
func (s *SQLStore) SetAll(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entries {
		if err := s.write(ctx, tx, e.TabKey, e.Records, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit tabs")
	}
	return nil
}

func (s *SQLStore) write(ctx context.Context, ex sqlx.ExtContext, tabKey string, records []types.Record, at time.Time) error {
	if records == nil {
		records = []types.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", s.Key(tabKey))
	}

	if _, err := ex.ExecContext(ctx, ex.Rebind(upsert), s.Key(tabKey), string(payload), at); err != nil {
		return errors.Wrapf(err, "failed to store %s", s.Key(tabKey))
	}
	return nil
}
