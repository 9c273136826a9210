package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps all state in process memory. State is lost on exit.
type Memory struct {
	periods int

	mu        sync.RWMutex
	schedules map[string][]string
	points    map[string]int
	devices   map[string][]Device
	watchdog  map[string]bool
}

// NewMemory returns an empty store whose schedules must have exactly
// periods labels.
func NewMemory(periods int) *Memory {
	return &Memory{
		periods:   periods,
		schedules: make(map[string][]string),
		points:    make(map[string]int),
		devices:   make(map[string][]Device),
		watchdog:  make(map[string]bool),
	}
}

func (m *Memory) SetSchedule(_ context.Context, userID string, labels []string) error {
	if err := CheckLength(labels, m.periods); err != nil {
		return err
	}
	cp := make([]string, len(labels))
	copy(cp, labels)

	m.mu.Lock()
	m.schedules[userID] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Schedule(_ context.Context, userID string) ([]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	labels, ok := m.schedules[userID]
	if !ok {
		return nil, false, nil
	}
	cp := make([]string, len(labels))
	copy(cp, labels)
	return cp, true, nil
}

func (m *Memory) UserIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.schedules))
	for id := range m.schedules {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) AddPoints(_ context.Context, userID string, amount int) error {
	if err := CheckAmount(amount); err != nil {
		return err
	}
	m.mu.Lock()
	m.points[userID] += amount
	m.mu.Unlock()
	return nil
}

func (m *Memory) Points(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.points[userID], nil
}

func (m *Memory) Top(_ context.Context, n int) ([]Standing, error) {
	m.mu.RLock()
	out := make([]Standing, 0, len(m.points))
	for id, p := range m.points {
		out = append(out, Standing{UserID: id, Points: p})
	}
	m.mu.RUnlock()
	return Rank(out, n), nil
}

func (m *Memory) AddDevice(_ context.Context, userID, name string) error {
	m.mu.Lock()
	m.devices[userID] = append(m.devices[userID], Device{Name: name, Status: StatusOff})
	m.mu.Unlock()
	return nil
}

func (m *Memory) ToggleDevice(_ context.Context, userID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	devs := m.devices[userID]
	for i := range devs {
		if devs[i].Name != name {
			continue
		}
		if devs[i].On() {
			devs[i].Status = StatusOff
		} else {
			devs[i].Status = StatusOn
		}
		return devs[i].Status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

func (m *Memory) ListDevices(_ context.Context, userID string) ([]Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	devs := m.devices[userID]
	out := make([]Device, len(devs))
	copy(out, devs)
	return out, nil
}

func (m *Memory) ToggleWatchdog(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchdog[userID] = !m.watchdog[userID]
	return m.watchdog[userID], nil
}
