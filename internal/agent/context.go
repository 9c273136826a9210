package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chris/greenclass/internal/bell"
)

// BuildContext summarises what the assistant knows about userID. Lookup
// failures are logged and the section is left out.
func (a *Agent) BuildContext(ctx context.Context, userID string) string {
	var b strings.Builder
	now := a.clock()
	fmt.Fprintf(&b, "## Now\n%s %s\n", now.Weekday(), bell.ClockOf(now))

	b.WriteString("\n## Schedule\n")
	labels, ok, err := a.schedules.Schedule(ctx, userID)
	switch {
	case err != nil:
		slog.Warn("agent context: loading schedule", "user", userID, "err", err)
	case !ok:
		b.WriteString("No schedule submitted yet.\n")
	default:
		for i, p := range a.engine.Calendar().Periods() {
			if i >= len(labels) {
				break
			}
			fmt.Fprintf(&b, "%d. %s–%s %s\n", p.Index, p.Start, p.End, labels[i])
		}
	}

	points, err := a.ledger.Points(ctx, userID)
	if err != nil {
		slog.Warn("agent context: loading points", "user", userID, "err", err)
	} else {
		fmt.Fprintf(&b, "\n## Green points\n%d\n", points)
	}

	devs, err := a.devices.ListDevices(ctx, userID)
	if err != nil {
		slog.Warn("agent context: loading devices", "user", userID, "err", err)
	} else if len(devs) > 0 {
		b.WriteString("\n## Devices\n")
		for _, d := range devs {
			fmt.Fprintf(&b, "- %s: %s\n", d.Name, d.Status)
		}
	}

	return b.String()
}
