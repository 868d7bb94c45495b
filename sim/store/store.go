// Package store keeps a history of simulation runs in a SQLite database.
// Each run stores its summary and the full series of every item, zstd-compressed.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/facmaker/facmaker/sim"
	"github.com/facmaker/facmaker/sim/report"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a run or one of its series does not exist.
var ErrNotFound = errors.New("not found")

// Run is the metadata of one stored run.
type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Source    string // description file the run was built from
	Horizon   int64
	Items     int
	Machines  int
	InFlight  int
}

// Store is a SQLite-backed run history. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// per-connection pragmas go in the DSN so every pooled connection gets them
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the database and the codecs.
func (s *Store) Close() error {
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

// SaveRun stores a run and its series in one transaction and returns its metadata.
func (s *Store) SaveRun(ctx context.Context, source string, sum *report.Summary, records []report.SeriesRecord) (Run, error) {
	run := Run{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Source:    source,
		Horizon:   sum.Horizon,
		Items:     len(sum.Items),
		Machines:  len(sum.Machines),
		InFlight:  sum.InFlight,
	}
	summary, err := json.Marshal(sum)
	if err != nil {
		return Run{}, fmt.Errorf("marshalling summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, created_at, source, horizon, items, machines, in_flight, summary)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.CreatedAt.UnixNano(), run.Source,
		run.Horizon, run.Items, run.Machines, run.InFlight, string(summary))
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO series(run_id, item_id, name, role, length, data) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()
	for _, r := range records {
		raw, err := json.Marshal(r.Values)
		if err != nil {
			return Run{}, err
		}
		blob := s.enc.EncodeAll(raw, nil)
		if _, err := stmt.ExecContext(ctx, run.ID.String(), int64(r.Item), r.Name, r.Role, len(r.Values), blob); err != nil {
			return Run{}, fmt.Errorf("inserting series of item %d: %w", r.Item, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	logrus.Debugf("stored run %s: %d series over %d ticks", run.ID, len(records), run.Horizon)
	return run, nil
}

const runColumns = `id, created_at, source, horizon, items, machines, in_flight`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		id      string
		created int64
	)
	if err := row.Scan(&id, &created, &r.Source, &r.Horizon, &r.Items, &r.Machines, &r.InFlight); err != nil {
		return Run{}, err
	}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

// ListRuns returns every stored run, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns the metadata of run id.
func (s *Store) Run(ctx context.Context, id uuid.UUID) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// Summary returns the summary stored with run id.
func (s *Store) Summary(ctx context.Context, id uuid.UUID) (*report.Summary, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM runs WHERE id = ?`, id.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var sum report.Summary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		return nil, fmt.Errorf("run %s summary: %w", id, err)
	}
	return &sum, nil
}

// Series returns the stored series of item in run id.
func (s *Store) Series(ctx context.Context, id uuid.UUID, item sim.ID) (report.SeriesRecord, error) {
	var (
		rec    = report.SeriesRecord{Item: item}
		length int
		blob   []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT name, role, length, data FROM series WHERE run_id = ? AND item_id = ?`,
		id.String(), int64(item)).Scan(&rec.Name, &rec.Role, &length, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return report.SeriesRecord{}, fmt.Errorf("run %s item %d: %w", id, item, ErrNotFound)
	}
	if err != nil {
		return report.SeriesRecord{}, err
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return report.SeriesRecord{}, fmt.Errorf("run %s item %d: decompressing: %w", id, item, err)
	}
	rec.Values = make([]int64, 0, length)
	if err := json.Unmarshal(raw, &rec.Values); err != nil {
		return report.SeriesRecord{}, fmt.Errorf("run %s item %d: %w", id, item, err)
	}
	return rec, nil
}

// DeleteRun removes a run and its series.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}
