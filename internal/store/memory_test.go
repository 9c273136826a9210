package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nineLabels(first string) []string {
	return []string{first, "-", "-", "-", "-", "-", "-", "-", "-"}
}

func TestMemory_SetAndGetSchedule(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)

	_, ok, err := m.Schedule(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "schedule should be absent before submission")

	require.NoError(t, m.SetSchedule(ctx, "u1", nineLabels("Math")))
	got, ok, err := m.Schedule(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nineLabels("Math"), got)

	// last writer wins
	require.NoError(t, m.SetSchedule(ctx, "u1", nineLabels("Physics")))
	got, _, _ = m.Schedule(ctx, "u1")
	assert.Equal(t, "Physics", got[0])
}

func TestMemory_InvalidLengthKeepsPrior(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	require.NoError(t, m.SetSchedule(ctx, "u1", nineLabels("Math")))

	err := m.SetSchedule(ctx, "u1", []string{"Math", "Physics"})
	require.ErrorIs(t, err, ErrInvalidScheduleLength)

	got, ok, _ := m.Schedule(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, nineLabels("Math"), got)
}

func TestMemory_InvalidLengthNoPrior(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)

	err := m.SetSchedule(ctx, "u1", make([]string, 10))
	require.ErrorIs(t, err, ErrInvalidScheduleLength)

	_, ok, _ := m.Schedule(ctx, "u1")
	assert.False(t, ok)
	ids, _ := m.UserIDs(ctx)
	assert.Empty(t, ids)
}

func TestMemory_ScheduleIsCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	labels := nineLabels("Math")
	require.NoError(t, m.SetSchedule(ctx, "u1", labels))
	labels[0] = "mutated"

	got, _, _ := m.Schedule(ctx, "u1")
	assert.Equal(t, "Math", got[0])
	got[1] = "mutated"
	again, _, _ := m.Schedule(ctx, "u1")
	assert.Equal(t, "-", again[1])
}

func TestMemory_UserIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	for _, id := range []string{"c", "a", "b", "a"} {
		require.NoError(t, m.SetSchedule(ctx, id, nineLabels("x")))
	}
	ids, err := m.UserIDs(ctx)
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestMemory_Points(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)

	p, err := m.Points(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, p)

	require.NoError(t, m.AddPoints(ctx, "u1", 5))
	p, _ = m.Points(ctx, "u1")
	assert.Equal(t, 5, p)

	require.NoError(t, m.AddPoints(ctx, "u1", 5))
	require.NoError(t, m.AddPoints(ctx, "u1", 5))
	p, _ = m.Points(ctx, "u1")
	assert.Equal(t, 15, p)
}

func TestMemory_AddPointsRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	assert.ErrorIs(t, m.AddPoints(ctx, "u1", 0), ErrInvalidAmount)
	assert.ErrorIs(t, m.AddPoints(ctx, "u1", -5), ErrInvalidAmount)
	p, _ := m.Points(ctx, "u1")
	assert.Equal(t, 0, p)
}

func TestMemory_Top(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	require.NoError(t, m.AddPoints(ctx, "b", 10))
	require.NoError(t, m.AddPoints(ctx, "a", 10))
	require.NoError(t, m.AddPoints(ctx, "c", 25))
	require.NoError(t, m.AddPoints(ctx, "d", 5))

	top, err := m.Top(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []Standing{{"c", 25}, {"a", 10}, {"b", 10}}, top)

	all, _ := m.Top(ctx, 0)
	assert.Len(t, all, 4)
}

func TestMemory_Devices(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)

	devs, err := m.ListDevices(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, devs)

	require.NoError(t, m.AddDevice(ctx, "u1", "lamp"))
	require.NoError(t, m.AddDevice(ctx, "u1", "projector"))

	status, err := m.ToggleDevice(ctx, "u1", "lamp")
	require.NoError(t, err)
	assert.Equal(t, StatusOn, status)

	status, err = m.ToggleDevice(ctx, "u1", "lamp")
	require.NoError(t, err)
	assert.Equal(t, StatusOff, status)

	_, err = m.ToggleDevice(ctx, "u1", "kettle")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = m.ToggleDevice(ctx, "u2", "lamp")
	assert.ErrorIs(t, err, ErrDeviceNotFound, "devices are per user")

	devs, _ = m.ListDevices(ctx, "u1")
	assert.Equal(t, []Device{{"lamp", StatusOff}, {"projector", StatusOff}}, devs)
}

func TestMemory_ToggleFirstDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	require.NoError(t, m.AddDevice(ctx, "u1", "lamp"))
	require.NoError(t, m.AddDevice(ctx, "u1", "lamp"))

	_, err := m.ToggleDevice(ctx, "u1", "lamp")
	require.NoError(t, err)

	devs, _ := m.ListDevices(ctx, "u1")
	assert.True(t, devs[0].On())
	assert.False(t, devs[1].On())
}

func TestMemory_Watchdog(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)
	on, err := m.ToggleWatchdog(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, on)
	on, _ = m.ToggleWatchdog(ctx, "u1")
	assert.False(t, on)
}

func TestMemory_ConcurrentCredits(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(9)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.AddPoints(ctx, "u1", 5)
			_ = m.SetSchedule(ctx, fmt.Sprintf("u%d", i), nineLabels("x"))
		}(i)
	}
	wg.Wait()

	p, _ := m.Points(ctx, "u1")
	assert.Equal(t, 250, p)
	ids, _ := m.UserIDs(ctx)
	assert.Len(t, ids, 50)
}
