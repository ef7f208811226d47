package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

const (
	journalTable = "delivery_journal"
	timeLayout   = "2006-01-02T15:04:05.000000Z"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS delivery_journal (
    run_id       TEXT NOT NULL,
    destination  BIGINT NOT NULL,
    url          TEXT NOT NULL,
    title        TEXT NOT NULL,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    attempted_at TEXT NOT NULL
)`

// Open connects to the journal database and makes sure the table exists.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps in-memory databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return db, nil
}

// Journal appends delivery attempts to the delivery_journal table.
type Journal struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.DeliveryJournal = (*Journal)(nil)

// NewJournal wires a sql.DB opened with driver.
func NewJournal(db *sql.DB, driver string) *Journal {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Journal{db: db, builder: sq.StatementBuilder.PlaceholderFormat(placeholder)}
}

// Record inserts one attempt.
func (j *Journal) Record(ctx context.Context, rec domain.DeliveryRecord) error {
	if j.db == nil {
		return nil
	}

	attempted := rec.AttemptedAt
	if attempted.IsZero() {
		attempted = time.Now()
	}

	query, args, err := j.builder.
		Insert(journalTable).
		Columns("run_id", "destination", "url", "title", "status", "error", "attempted_at").
		Values(rec.RunID, int64(rec.Destination), rec.URL, rec.Title, string(rec.Status), rec.Error,
			attempted.UTC().Format(timeLayout)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert journal record: %w", err)
	}
	return nil
}

// Recent returns the latest attempts, newest first.
func (j *Journal) Recent(ctx context.Context, limit uint64) ([]domain.DeliveryRecord, error) {
	if j.db == nil {
		return nil, nil
	}
	if limit == 0 {
		limit = 20
	}

	query, args, err := j.builder.
		Select("run_id", "destination", "url", "title", "status", "error", "attempted_at").
		From(journalTable).
		OrderBy("attempted_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}

	var records []domain.DeliveryRecord
	for rows.Next() {
		var (
			rec       domain.DeliveryRecord
			dest      int64
			status    string
			attempted string
		)
		if err := rows.Scan(&rec.RunID, &dest, &rec.URL, &rec.Title, &status, &rec.Error, &attempted); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		rec.Destination = domain.Destination(dest)
		rec.Status = domain.DeliveryStatus(status)
		if ts, err := time.Parse(timeLayout, attempted); err == nil {
			rec.AttemptedAt = ts
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}
