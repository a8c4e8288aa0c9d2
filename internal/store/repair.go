package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepairRun records the outcome of one archive repair.
type RepairRun struct {
	ID                string
	StartedAt         time.Time
	ArchivePath       string
	TotalChats        int
	RenamedChats      int
	TotalMessages     int
	RenamedSenders    int
	DestinationsAdded int
}

// RecordRepairRun saves a repair run. If run.ID is empty a UUID is generated.
func (d *DB) RecordRepairRun(ctx context.Context, run RepairRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := d.ExecContext(ctx, `
		INSERT INTO repair_runs (
			id, archive_path, total_chats, renamed_chats,
			total_messages, renamed_senders, destinations_added
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ArchivePath, run.TotalChats, run.RenamedChats,
		run.TotalMessages, run.RenamedSenders, run.DestinationsAdded,
	)
	if err != nil {
		return "", fmt.Errorf("recording repair run: %w", err)
	}
	return run.ID, nil
}

// ListRepairRuns returns repair runs, newest first. A limit of zero or
// less returns all runs.
func (d *DB) ListRepairRuns(ctx context.Context, limit int) ([]RepairRun, error) {
	query := `
		SELECT id, started_at, archive_path, total_chats, renamed_chats,
		       total_messages, renamed_senders, destinations_added
		FROM repair_runs ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing repair runs: %w", err)
	}
	defer rows.Close()

	var runs []RepairRun
	for rows.Next() {
		var (
			r  RepairRun
			ts string
		)
		if err := rows.Scan(
			&r.ID, &ts, &r.ArchivePath, &r.TotalChats, &r.RenamedChats,
			&r.TotalMessages, &r.RenamedSenders, &r.DestinationsAdded,
		); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(ts)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
