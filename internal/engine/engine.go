// Package engine turns a user's daily schedule and the time of day into
// recommendations, crediting green points when a classroom sits empty.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/metrics"
	"github.com/chris/greenclass/internal/store"
)

const (
	// Reward is credited for every pass that observes an empty classroom.
	Reward = 5
	// Lead is how far ahead of a lesson the "starting soon" reminder opens.
	Lead = 15 * time.Minute

	NoRecommendations = "No recommendations at the moment ✅"
)

type Kind string

const (
	KindEmptyRoom    Kind = "empty_room"
	KindStartingSoon Kind = "starting_soon"
)

type Recommendation struct {
	Kind    Kind
	Period  int
	Subject string
	Text    string
}

func emptyRoom(period int) Recommendation {
	return Recommendation{
		Kind:   KindEmptyRoom,
		Period: period,
		Text:   fmt.Sprintf("Classroom is empty now (lesson %d) | close the window, turn off the computer, turn off the lights 💡", period),
	}
}

func startingSoon(period int, subject string) Recommendation {
	return Recommendation{
		Kind:    KindStartingSoon,
		Period:  period,
		Subject: subject,
		Text:    fmt.Sprintf("In 15 minutes lesson %d (%s) | prepare the equipment 📚", period, subject),
	}
}

// Evaluate matches labels against the calendar at now. Periods past the end
// of labels are skipped. Results are in ascending period order; nil means
// nothing matched.
func Evaluate(cal *bell.Calendar, labels []string, now bell.Clock) []Recommendation {
	var out []Recommendation
	for _, p := range cal.Periods() {
		if p.Index > len(labels) {
			break
		}
		label := labels[p.Index-1]
		if label == store.NoClass {
			if p.Contains(now) {
				out = append(out, emptyRoom(p.Index))
			}
			continue
		}
		// Lessons already under way get no message.
		if delta := p.Start.Sub(now); delta > 0 && delta <= Lead {
			out = append(out, startingSoon(p.Index, label))
		}
	}
	return out
}

// Engine runs analysis passes against stored schedules.
type Engine struct {
	calendar  *bell.Calendar
	schedules store.Schedules
	ledger    store.Ledger
	metrics   *metrics.Metrics
}

func New(cal *bell.Calendar, schedules store.Schedules, ledger store.Ledger, m *metrics.Metrics) *Engine {
	return &Engine{calendar: cal, schedules: schedules, ledger: ledger, metrics: m}
}

func (e *Engine) Calendar() *bell.Calendar { return e.calendar }

// Analyze runs one pass for userID. Each empty-room match credits Reward
// points, on every call while the condition holds. A user without a
// schedule gets only the fallback message.
func (e *Engine) Analyze(ctx context.Context, userID string, now bell.Clock) ([]string, error) {
	labels, _, err := e.schedules.Schedule(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}

	recs := Evaluate(e.calendar, labels, now)
	if len(recs) == 0 {
		return []string{NoRecommendations}, nil
	}

	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Kind == KindEmptyRoom {
			if err := e.ledger.AddPoints(ctx, userID, Reward); err != nil {
				return nil, fmt.Errorf("crediting points: %w", err)
			}
			e.metrics.ObserveCredit(Reward)
			slog.Debug("empty classroom credited", "user", userID, "period", r.Period, "points", Reward)
		}
		e.metrics.ObserveRecommendation(string(r.Kind))
		lines = append(lines, r.Text)
	}
	return lines, nil
}
