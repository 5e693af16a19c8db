package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/canvasai/internal/ports/secondary"
)

// errorCommand is the history command under which surfaced error codes are logged.
const errorCommand = "error"

// ActionLog implements secondary.ActionLog over the history table.
type ActionLog struct {
	db *sql.DB
}

// NewActionLog creates a new SQLite action log.
func NewActionLog(db *sql.DB) *ActionLog {
	return &ActionLog{db: db}
}

// Record appends an entry.
func (l *ActionLog) Record(ctx context.Context, command, payload string) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO history (ts, command, payload) VALUES (?, ?, ?)",
		now(), command, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// TopErrorCodes returns the most frequent error codes, most frequent first.
// Entries with an empty payload are ignored.
func (l *ActionLog) TopErrorCodes(ctx context.Context, limit int) ([]*secondary.ErrorCodeCount, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT payload, COUNT(*) AS c FROM history
		WHERE command = ? AND payload IS NOT NULL AND payload != ''
		GROUP BY payload ORDER BY c DESC, payload ASC LIMIT ?`,
		errorCommand, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query error codes: %w", err)
	}
	defer rows.Close()

	var counts []*secondary.ErrorCodeCount
	for rows.Next() {
		c := &secondary.ErrorCodeCount{}
		if err := rows.Scan(&c.Code, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan error code: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Ensure ActionLog implements the interface.
var _ secondary.ActionLog = (*ActionLog)(nil)
