// Package bell holds the school bell calendar: the fixed, ordered list of
// lesson periods shared by every user.
package bell

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Clock is a time of day, stored as the offset from midnight.
type Clock time.Duration

// ClockOf returns the time of day of t, dropping the date.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
	return Clock(d)
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// MustClock is ParseClock for literals.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Sub returns c - o as a signed duration.
func (c Clock) Sub(o Clock) time.Duration {
	return time.Duration(c) - time.Duration(o)
}

func (c Clock) String() string {
	d := time.Duration(c)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Period is one lesson slot. Index is 1-based.
type Period struct {
	Index int   `json:"index"`
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Contains reports whether now falls within [Start, End].
func (p Period) Contains(now Clock) bool {
	return p.Start <= now && now <= p.End
}

// Calendar is the ordered, immutable list of periods.
type Calendar struct {
	periods []Period
}

// NewCalendar validates the periods and assigns indices 1..N in order.
func NewCalendar(periods []Period) (*Calendar, error) {
	if len(periods) == 0 {
		return nil, errors.New("bell calendar has no periods")
	}
	out := make([]Period, len(periods))
	for i, p := range periods {
		if p.Start >= p.End {
			return nil, fmt.Errorf("period %d: start %s is not before end %s", i+1, p.Start, p.End)
		}
		if i > 0 && p.Start <= out[i-1].End {
			return nil, fmt.Errorf("period %d: starts at %s, before period %d ends at %s", i+1, p.Start, i, out[i-1].End)
		}
		p.Index = i + 1
		out[i] = p
	}
	return &Calendar{periods: out}, nil
}

var defaultBells = [][2]string{
	{"08:00", "08:45"},
	{"08:50", "09:35"},
	{"09:50", "10:35"},
	{"10:50", "11:35"},
	{"11:50", "12:35"},
	{"12:50", "13:35"},
	{"13:45", "14:30"},
	{"14:40", "15:25"},
	{"15:30", "16:15"},
}

// Default returns the nine-period reference calendar.
func Default() *Calendar {
	periods := make([]Period, len(defaultBells))
	for i, b := range defaultBells {
		periods[i] = Period{Start: MustClock(b[0]), End: MustClock(b[1])}
	}
	cal, err := NewCalendar(periods)
	if err != nil {
		panic(err)
	}
	return cal
}

type fileFormat struct {
	Periods []struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"periods"`
}

// Parse builds a calendar from YAML:
//
//	periods:
//	  - {start: "08:00", end: "08:45"}
func Parse(data []byte) (*Calendar, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing bell calendar: %w", err)
	}
	periods := make([]Period, 0, len(f.Periods))
	for i, p := range f.Periods {
		start, err := ParseClock(p.Start)
		if err != nil {
			return nil, fmt.Errorf("period %d start: %w", i+1, err)
		}
		end, err := ParseClock(p.End)
		if err != nil {
			return nil, fmt.Errorf("period %d end: %w", i+1, err)
		}
		periods = append(periods, Period{Start: start, End: end})
	}
	return NewCalendar(periods)
}

// LoadFile reads a YAML calendar from path.
func LoadFile(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bell calendar: %w", err)
	}
	return Parse(data)
}

// Periods returns a copy of the periods in ascending order.
func (c *Calendar) Periods() []Period {
	out := make([]Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Len returns N, the number of periods.
func (c *Calendar) Len() int {
	return len(c.periods)
}

// Format renders the calendar one period per line.
func (c *Calendar) Format() string {
	var b strings.Builder
	for _, p := range c.periods {
		fmt.Fprintf(&b, "%d. %s–%s\n", p.Index, p.Start, p.End)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
