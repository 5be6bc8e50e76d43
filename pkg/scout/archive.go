package scout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"edgeline/diagd/pkg/notices"
)

// Archive records scout reports in a local SQLite database.
type Archive struct {
	db *sql.DB
}

// ArchivedReport is one stored report row.
type ArchivedReport struct {
	ID        int64
	CreatedAt time.Time
	Mode      string
	Action    string
	Args      map[string]any
	Notices   []notices.Notice
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS scout_reports (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	mode       TEXT NOT NULL,
	action     TEXT NOT NULL,
	args       TEXT NOT NULL,
	notices    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scout_reports_created_at ON scout_reports(created_at);
`

// OpenArchive opens (creating if necessary) the report archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening scout archive %q: %w", path, err)
	}

	// Single-writer workload; WAL keeps probe-time reads from blocking.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring scout archive: %w", err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating scout archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Record stores one report.
func (a *Archive) Record(ctx context.Context, at time.Time, mode, action string, args map[string]any, ns []notices.Notice) error {
	if args == nil {
		args = map[string]any{}
	}
	if ns == nil {
		ns = []notices.Notice{}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding report args: %w", err)
	}
	noticesJSON, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("encoding report notices: %w", err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO scout_reports (created_at, mode, action, args, notices) VALUES (?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), mode, action, string(argsJSON), string(noticesJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting scout report: %w", err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]ArchivedReport, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, mode, action, args, notices
		 FROM scout_reports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scout reports: %w", err)
	}
	defer rows.Close()

	var reports []ArchivedReport
	for rows.Next() {
		var (
			rep         ArchivedReport
			createdAt   string
			argsJSON    string
			noticesJSON string
		)
		if err := rows.Scan(&rep.ID, &createdAt, &rep.Mode, &rep.Action, &argsJSON, &noticesJSON); err != nil {
			return nil, fmt.Errorf("scanning scout report: %w", err)
		}

		rep.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing report timestamp %q: %w", createdAt, err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &rep.Args); err != nil {
			return nil, fmt.Errorf("decoding report args: %w", err)
		}
		if err := json.Unmarshal([]byte(noticesJSON), &rep.Notices); err != nil {
			return nil, fmt.Errorf("decoding report notices: %w", err)
		}

		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scout reports: %w", err)
	}

	return reports, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}
