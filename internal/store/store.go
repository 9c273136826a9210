// Package store defines the per-user state the assistant keeps (schedules,
// green points, devices) and its in-memory and Redis implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidScheduleLength = errors.New("invalid schedule length")
	ErrInvalidAmount         = errors.New("points amount must be positive")
	ErrDeviceNotFound        = errors.New("device not found")
)

// NoClass is the schedule label for a period without a lesson.
const NoClass = "-"

// Device status values.
const (
	StatusOff = "off"
	StatusOn  = "on"
)

// Schedules stores one flat daily schedule per user. Last writer wins.
type Schedules interface {
	SetSchedule(ctx context.Context, userID string, labels []string) error
	// Schedule returns ok == false when the user never submitted one.
	Schedule(ctx context.Context, userID string) (labels []string, ok bool, err error)
	UserIDs(ctx context.Context) ([]string, error)
}

// Ledger accumulates green points per user.
type Ledger interface {
	AddPoints(ctx context.Context, userID string, amount int) error
	Points(ctx context.Context, userID string) (int, error)
	Top(ctx context.Context, n int) ([]Standing, error)
}

// Devices is the simulated device registry plus the watchdog flag.
type Devices interface {
	AddDevice(ctx context.Context, userID, name string) error
	ToggleDevice(ctx context.Context, userID, name string) (status string, err error)
	ListDevices(ctx context.Context, userID string) ([]Device, error)
	ToggleWatchdog(ctx context.Context, userID string) (enabled bool, err error)
}

type Standing struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

type Device struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// On reports whether the device is switched on.
func (d Device) On() bool { return d.Status == StatusOn }

// CheckLength returns a wrapped ErrInvalidScheduleLength unless len(labels) == n.
func CheckLength(labels []string, n int) error {
	if len(labels) != n {
		return fmt.Errorf("%w: got %d labels, want %d", ErrInvalidScheduleLength, len(labels), n)
	}
	return nil
}

// CheckAmount rejects non-positive credits.
func CheckAmount(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}

// Rank orders standings by points descending, then user id ascending, and
// keeps the first n. n <= 0 keeps all.
func Rank(out []Standing, n int) []Standing {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
