package db

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/chris/greenclass/internal/store"
)

var (
	_ store.Schedules = (*DB)(nil)
	_ store.Ledger    = (*DB)(nil)
	_ store.Devices   = (*DB)(nil)
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:", 9)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func labels(first string) []string {
	return []string{first, "-", "Physics", "-", "-", "-", "-", "-", "History"}
}

// --- Schedules ---

func TestScheduleAbsent(t *testing.T) {
	d := openTestDB(t)
	got, ok, err := d.Schedule(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if ok || got != nil {
		t.Errorf("expected absent schedule, got %v (ok=%v)", got, ok)
	}
}

func TestSetAndGetSchedule(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	if err := d.SetSchedule(ctx, "u1", labels("Math")); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	got, ok, err := d.Schedule(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("Schedule: %v (ok=%v)", err, ok)
	}
	want := labels("Math")
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: got %q, want %q", i+1, got[i], want[i])
		}
	}
}

func TestSetScheduleReplaces(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	d.SetSchedule(ctx, "u1", labels("Math"))
	if err := d.SetSchedule(ctx, "u1", labels("Biology")); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	got, _, _ := d.Schedule(ctx, "u1")
	if got[0] != "Biology" {
		t.Errorf("expected replaced label %q, got %q", "Biology", got[0])
	}
}

func TestSetScheduleInvalidLength(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	d.SetSchedule(ctx, "u1", labels("Math"))
	err := d.SetSchedule(ctx, "u1", []string{"Art"})
	if !errors.Is(err, store.ErrInvalidScheduleLength) {
		t.Fatalf("expected ErrInvalidScheduleLength, got %v", err)
	}
	got, _, _ := d.Schedule(ctx, "u1")
	if len(got) != 9 || got[0] != "Math" {
		t.Errorf("prior schedule changed: %v", got)
	}
}

func TestUserIDs(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	d.SetSchedule(ctx, "b", labels("x"))
	d.SetSchedule(ctx, "a", labels("x"))
	d.SetSchedule(ctx, "a", labels("y"))

	ids, err := d.UserIDs(ctx)
	if err != nil {
		t.Fatalf("UserIDs: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("expected [a b], got %v", ids)
	}
}

// --- Points ---

func TestPoints(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	p, err := d.Points(ctx, "nobody")
	if err != nil || p != 0 {
		t.Fatalf("expected (0, nil), got (%d, %v)", p, err)
	}

	for i := 0; i < 3; i++ {
		if err := d.AddPoints(ctx, "u1", 5); err != nil {
			t.Fatalf("AddPoints: %v", err)
		}
	}
	p, _ = d.Points(ctx, "u1")
	if p != 15 {
		t.Errorf("expected 15 points, got %d", p)
	}
}

func TestAddPointsRejectsNonPositive(t *testing.T) {
	d := openTestDB(t)
	if err := d.AddPoints(context.Background(), "u1", 0); !errors.Is(err, store.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTop(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	d.AddPoints(ctx, "b", 10)
	d.AddPoints(ctx, "a", 10)
	d.AddPoints(ctx, "c", 30)

	top, err := d.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(top))
	}
	if top[0].UserID != "c" || top[1].UserID != "a" {
		t.Errorf("unexpected order: %+v", top)
	}

	all, _ := d.Top(ctx, 0)
	if len(all) != 3 {
		t.Errorf("expected 3 standings, got %d", len(all))
	}
}

// --- Devices ---

func TestDevices(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	d.AddDevice(ctx, "u1", "lamp")
	d.AddDevice(ctx, "u1", "lamp")
	d.AddDevice(ctx, "u1", "pc")

	status, err := d.ToggleDevice(ctx, "u1", "lamp")
	if err != nil {
		t.Fatalf("ToggleDevice: %v", err)
	}
	if status != store.StatusOn {
		t.Errorf("expected %q, got %q", store.StatusOn, status)
	}

	devs, err := d.ListDevices(ctx, "u1")
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devs) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devs))
	}
	if !devs[0].On() || devs[1].On() || devs[2].On() {
		t.Errorf("only the first lamp should be on: %+v", devs)
	}

	status, _ = d.ToggleDevice(ctx, "u1", "lamp")
	if status != store.StatusOff {
		t.Errorf("expected %q after second toggle, got %q", store.StatusOff, status)
	}
}

func TestToggleMissingDevice(t *testing.T) {
	d := openTestDB(t)
	_, err := d.ToggleDevice(context.Background(), "u1", "kettle")
	if !errors.Is(err, store.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestToggleWatchdog(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	for i, want := range []bool{true, false, true} {
		got, err := d.ToggleWatchdog(ctx, "u1")
		if err != nil {
			t.Fatalf("ToggleWatchdog: %v", err)
		}
		if got != want {
			t.Errorf("toggle %d: expected %v, got %v", i+1, want, got)
		}
	}
}

// --- Persistence ---

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "greenclass.db")

	d, err := Open(path, 9)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d.SetSchedule(ctx, "u1", labels("Math"))
	d.AddPoints(ctx, "u1", 5)
	d.Close()

	d, err = Open(path, 9)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()

	got, ok, _ := d.Schedule(ctx, "u1")
	if !ok || got[0] != "Math" {
		t.Errorf("schedule lost across reopen: %v", got)
	}
	p, _ := d.Points(ctx, "u1")
	if p != 5 {
		t.Errorf("expected 5 points after reopen, got %d", p)
	}
}
