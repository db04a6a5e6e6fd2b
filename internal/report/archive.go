// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/srtcheck/internal/log"
	"github.com/ManuGH/srtcheck/internal/persistence/sqlite"
)

// ErrNotArchived is returned by Archive.Get for an unknown report id.
var ErrNotArchived = errors.New("report: not archived")

const archiveSchemaVersion = 1

const archiveSchema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id  TEXT PRIMARY KEY,
	success    INTEGER NOT NULL,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_updated ON reports(updated_at DESC);
`

// Entry is an archived report.
type Entry struct {
	Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Archive keeps every completed report in a local SQLite database so that
// history survives restarts. The in-memory Cache stays authoritative for
// the report view; the archive is only read by the history command.
type Archive struct {
	DB   *sql.DB
	path string
	now  func() time.Time
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(ctx context.Context, path string) (*Archive, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, archiveSchemaVersion, archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("report archive: %w", err)
	}
	return &Archive{DB: db, path: path, now: time.Now}, nil
}

// Put upserts rec. Incomplete records are ignored.
func (a *Archive) Put(ctx context.Context, rec Record) error {
	if !rec.Complete() {
		return nil
	}
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("report archive: encode data: %w", err)
	}
	ts := a.now().UnixMilli()
	_, err = a.DB.ExecContext(ctx, `
		INSERT INTO reports (report_id, success, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(report_id) DO UPDATE SET
			success = excluded.success,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, rec.ReportID, rec.Success, string(data), ts, ts)
	if err != nil {
		return fmt.Errorf("report archive: put %s: %w", rec.ReportID, err)
	}
	logger := log.WithComponent("report")
	logger.Debug().
		Str(log.FieldEvent, "report.archived").
		Str(log.FieldReportID, rec.ReportID).
		Msg("report archived")
	return nil
}

// Get loads one archived report.
func (a *Archive) Get(ctx context.Context, reportID string) (Entry, error) {
	row := a.DB.QueryRowContext(ctx, `
		SELECT report_id, success, data, created_at, updated_at
		FROM reports WHERE report_id = ?`, reportID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotArchived
	}
	return e, err
}

// List returns up to limit reports, most recently updated first.
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.DB.QueryContext(ctx, `
		SELECT report_id, success, data, created_at, updated_at
		FROM reports ORDER BY updated_at DESC, report_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Verify runs a quick integrity check on the archive file.
func (a *Archive) Verify() ([]string, error) {
	return sqlite.VerifyIntegrity(a.path, "quick")
}

// Close releases the database.
func (a *Archive) Close() error {
	return a.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e                Entry
		data             string
		created, updated int64
	)
	if err := s.Scan(&e.ReportID, &e.Success, &data, &created, &updated); err != nil {
		return Entry{}, err
	}
	p, err := ParsePayload(json.RawMessage(data))
	if err != nil {
		return Entry{}, err
	}
	e.Data = p
	e.CreatedAt = time.UnixMilli(created)
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}
