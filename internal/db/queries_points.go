package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chris/greenclass/internal/store"
)

// AddPoints credits amount to the user, creating the balance at 0 first.
func (d *DB) AddPoints(ctx context.Context, userID string, amount int) error {
	if err := store.CheckAmount(amount); err != nil {
		return err
	}
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO points (user_id, balance) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET balance = balance + excluded.balance, updated_at = datetime('now')`,
		userID, amount,
	)
	if err != nil {
		return fmt.Errorf("adding points: %w", err)
	}
	return nil
}

// Points returns the balance, 0 for unseen users.
func (d *DB) Points(ctx context.Context, userID string) (int, error) {
	var balance int
	err := d.conn.QueryRowContext(ctx, "SELECT balance FROM points WHERE user_id = ?", userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return balance, nil
}

// Top returns the n highest balances; n <= 0 returns all.
func (d *DB) Top(ctx context.Context, n int) ([]store.Standing, error) {
	q := "SELECT user_id, balance FROM points ORDER BY balance DESC, user_id ASC"
	var args []any
	if n > 0 {
		q += " LIMIT ?"
		args = append(args, n)
	}
	rows, err := d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard: %w", err)
	}
	defer rows.Close()
	var out []store.Standing
	for rows.Next() {
		var s store.Standing
		if err := rows.Scan(&s.UserID, &s.Points); err != nil {
			return nil, fmt.Errorf("scanning standing: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
