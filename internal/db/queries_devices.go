package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chris/greenclass/internal/store"
)

// AddDevice registers a device switched off. Duplicate names are allowed.
func (d *DB) AddDevice(ctx context.Context, userID, name string) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO devices (user_id, name, status) VALUES (?, ?, ?)",
		userID, name, store.StatusOff,
	)
	if err != nil {
		return fmt.Errorf("adding device: %w", err)
	}
	return nil
}

// ToggleDevice flips the first device with that name.
func (d *DB) ToggleDevice(ctx context.Context, userID, name string) (string, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning toggle: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var status string
	err = tx.QueryRowContext(ctx,
		"SELECT id, status FROM devices WHERE user_id = ? AND name = ? ORDER BY id ASC LIMIT 1",
		userID, name,
	).Scan(&id, &status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %q", store.ErrDeviceNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("finding device: %w", err)
	}

	next := store.StatusOn
	if status == store.StatusOn {
		next = store.StatusOff
	}
	if _, err := tx.ExecContext(ctx, "UPDATE devices SET status = ? WHERE id = ?", next, id); err != nil {
		return "", fmt.Errorf("toggling device: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing toggle: %w", err)
	}
	return next, nil
}

// ListDevices returns devices in the order they were added.
func (d *DB) ListDevices(ctx context.Context, userID string) ([]store.Device, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT name, status FROM devices WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()
	var out []store.Device
	for rows.Next() {
		var dev store.Device
		if err := rows.Scan(&dev.Name, &dev.Status); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		out = append(out, dev)
	}
	return out, rows.Err()
}

// ToggleWatchdog flips the user's watchdog flag and returns the new value.
func (d *DB) ToggleWatchdog(ctx context.Context, userID string) (bool, error) {
	var enabled int
	err := d.conn.QueryRowContext(ctx,
		`INSERT INTO watchdog (user_id, enabled) VALUES (?, 1)
		 ON CONFLICT(user_id) DO UPDATE SET enabled = 1 - enabled
		 RETURNING enabled`,
		userID,
	).Scan(&enabled)
	if err != nil {
		return false, fmt.Errorf("toggling watchdog: %w", err)
	}
	return enabled == 1, nil
}
