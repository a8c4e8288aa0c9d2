package store

import (
	"context"
	"fmt"
	"time"
)

// Correction maps a raw identifier to the display name the user assigned it.
type Correction struct {
	Identifier  string
	DisplayName string
	CreatedAt   time.Time
}

// SaveCorrection inserts or updates the correction for an identifier.
func (d *DB) SaveCorrection(ctx context.Context, identifier, displayName string) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO corrections (identifier, display_name)
		VALUES (?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = datetime('now')`,
		identifier, displayName,
	)
	if err != nil {
		return fmt.Errorf("saving correction: %w", err)
	}
	return nil
}

// ListCorrections returns all stored corrections ordered by identifier,
// so replaying them into a resolver is deterministic.
func (d *DB) ListCorrections(ctx context.Context) ([]Correction, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT identifier, display_name, created_at
		FROM corrections ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("listing corrections: %w", err)
	}
	defer rows.Close()

	var corrections []Correction
	for rows.Next() {
		var (
			c  Correction
			ts string
		)
		if err := rows.Scan(&c.Identifier, &c.DisplayName, &ts); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(ts)
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// DeleteCorrection removes the correction for an identifier. It reports
// whether a row existed.
func (d *DB) DeleteCorrection(ctx context.Context, identifier string) (bool, error) {
	res, err := d.ExecContext(ctx, "DELETE FROM corrections WHERE identifier = ?", identifier)
	if err != nil {
		return false, fmt.Errorf("deleting correction: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
