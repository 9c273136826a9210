package db

import (
	"context"
	"fmt"

	"github.com/chris/greenclass/internal/store"
)

// SetSchedule replaces the user's schedule in one transaction.
func (d *DB) SetSchedule(ctx context.Context, userID string, labels []string) error {
	if err := store.CheckLength(labels, d.periods); err != nil {
		return err
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schedule update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing schedule: %w", err)
	}
	for i, label := range labels {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedules (user_id, period, label) VALUES (?, ?, ?)",
			userID, i+1, label,
		); err != nil {
			return fmt.Errorf("inserting period %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schedule: %w", err)
	}
	return nil
}

// Schedule returns the user's labels ordered by period.
func (d *DB) Schedule(ctx context.Context, userID string) ([]string, bool, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT label FROM schedules WHERE user_id = ? ORDER BY period ASC", userID)
	if err != nil {
		return nil, false, fmt.Errorf("loading schedule: %w", err)
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, false, fmt.Errorf("scanning schedule: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return labels, len(labels) > 0, nil
}

// UserIDs lists every user that has a schedule.
func (d *DB) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT DISTINCT user_id FROM schedules")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
