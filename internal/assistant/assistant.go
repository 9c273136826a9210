// Package assistant maps chat text to replies. It is transport-agnostic:
// the Discord bot and the CLI both feed it raw message text.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/devices"
	"github.com/chris/greenclass/internal/engine"
	"github.com/chris/greenclass/internal/store"
)

const (
	Greeting = "Hi! I am a smart assistant for schools 🏫"

	ScheduleHelp = "Send your schedule for the day (9 lines, one subject each).\n" +
		"Example:\nMath\nPhysics\n-\nHistory\n-\n-\n-\n-\n-"

	NoDevices     = "You don’t have any devices yet. Add one with: add [name]"
	ScheduleOK    = "Schedule accepted ✅"
	UnknownFormat = "Unknown command or wrong format."
	Apology       = "Something went wrong. Try again?"
	NoLLM         = "The /ask command is not configured on this server."

	topSize = 10
)

const commandList = `Commands:
/schedule  how to submit your schedule
/analyze   recommendations for right now
/points    your green points
/money     what your points are worth
/devices   your devices
/toggle <name>  switch a device on or off
add <name> register a device
/forecast  energy forecast for the next hour
/watchdog  toggle smart watchdog mode
/top       green points leaderboard
/bells     bell schedule
/ask <question>  ask the assistant anything`

// Asker answers free-form questions. The LLM agent implements it.
type Asker interface {
	Run(ctx context.Context, userID, question string) (string, error)
}

type Deps struct {
	Engine    *engine.Engine
	Schedules store.Schedules
	Ledger    store.Ledger
	Devices   store.Devices
	// Asker is optional; /ask replies NoLLM without it.
	Asker  Asker
	Clock  func() time.Time
	Rand   *rand.Rand
	Logger *slog.Logger
}

type Assistant struct {
	engine    *engine.Engine
	schedules store.Schedules
	ledger    store.Ledger
	devices   store.Devices
	asker     Asker
	clock     func() time.Time
	rnd       *rand.Rand
	logger    *slog.Logger
}

func New(d Deps) *Assistant {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Assistant{
		engine:    d.Engine,
		schedules: d.Schedules,
		ledger:    d.Ledger,
		devices:   d.Devices,
		asker:     d.Asker,
		clock:     d.Clock,
		rnd:       d.Rand,
		logger:    d.Logger,
	}
}

// Handle returns the reply to one message from userID. Errors are logged
// and turned into an apology; the caller always gets text to send.
func (a *Assistant) Handle(ctx context.Context, userID, text string) string {
	text = strings.TrimSpace(text)
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	reply, err := a.dispatch(ctx, userID, text, cmd, arg)
	if err != nil {
		a.logger.Error("handling message", "user", userID, "command", cmd, "err", err)
		return Apology
	}
	return reply
}

func (a *Assistant) dispatch(ctx context.Context, userID, text, cmd, arg string) (string, error) {
	switch cmd {
	case "/start", "/help":
		return Greeting + "\n\n" + commandList, nil
	case "/schedule":
		return ScheduleHelp, nil
	case "/analyze":
		return a.analyze(ctx, userID)
	case "/points":
		p, err := a.ledger.Points(ctx, userID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Your green points: %d 🌱", p), nil
	case "/money":
		p, err := a.ledger.Points(ctx, userID)
		if err != nil {
			return "", err
		}
		return devices.MoneySaved(p), nil
	case "/devices":
		return a.listDevices(ctx, userID)
	case "/toggle":
		return a.toggle(ctx, userID, arg)
	case "/forecast":
		devs, err := a.devices.ListDevices(ctx, userID)
		if err != nil {
			return "", err
		}
		return devices.Forecast(devices.Active(devs), a.rnd), nil
	case "/watchdog":
		on, err := a.devices.ToggleWatchdog(ctx, userID)
		if err != nil {
			return "", err
		}
		if on {
			return "Smart watchdog mode enabled 🛡", nil
		}
		return "Smart watchdog mode disabled ❌", nil
	case "/top":
		return a.leaderboard(ctx)
	case "/bells":
		return "Bell schedule:\n" + a.engine.Calendar().Format(), nil
	case "/ask":
		return a.ask(ctx, userID, arg)
	case "add":
		if arg == "" {
			break
		}
		if err := a.devices.AddDevice(ctx, userID, arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Device %s added ✅", arg), nil
	}
	return a.submitSchedule(ctx, userID, text)
}

// submitSchedule treats text as one label per line. A wrong line count
// leaves the stored schedule alone and replies with its analysis instead.
func (a *Assistant) submitSchedule(ctx context.Context, userID, text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	header := ScheduleOK
	err := a.schedules.SetSchedule(ctx, userID, lines)
	switch {
	case errors.Is(err, store.ErrInvalidScheduleLength):
		header = UnknownFormat
	case err != nil:
		return "", fmt.Errorf("saving schedule: %w", err)
	}

	analysis, err := a.analyze(ctx, userID)
	if err != nil {
		return "", err
	}
	return header + "\n\n" + analysis, nil
}

func (a *Assistant) analyze(ctx context.Context, userID string) (string, error) {
	lines, err := a.engine.Analyze(ctx, userID, bell.ClockOf(a.clock()))
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (a *Assistant) listDevices(ctx context.Context, userID string) (string, error) {
	devs, err := a.devices.ListDevices(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(devs) == 0 {
		return NoDevices, nil
	}
	var b strings.Builder
	b.WriteString("Your devices:")
	for _, d := range devs {
		fmt.Fprintf(&b, "\n- %s (%s)", d.Name, d.Status)
	}
	b.WriteString("\nSwitch one with: /toggle [name]")
	return b.String(), nil
}

func (a *Assistant) toggle(ctx context.Context, userID, name string) (string, error) {
	if name == "" {
		return "Usage: /toggle [name]", nil
	}
	status, err := a.devices.ToggleDevice(ctx, userID, name)
	if errors.Is(err, store.ErrDeviceNotFound) {
		return fmt.Sprintf("Device %s not found. Add it with: add %s", name, name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s → %s", name, status), nil
}

func (a *Assistant) leaderboard(ctx context.Context) (string, error) {
	top, err := a.ledger.Top(ctx, topSize)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "Nobody has earned green points yet 🌱", nil
	}
	var b strings.Builder
	b.WriteString("Green points leaderboard:")
	for i, s := range top {
		fmt.Fprintf(&b, "\n%d. %s: %d 🌱", i+1, s.UserID, s.Points)
	}
	return b.String(), nil
}

func (a *Assistant) ask(ctx context.Context, userID, question string) (string, error) {
	if a.asker == nil {
		return NoLLM, nil
	}
	if question == "" {
		return "Usage: /ask [question]", nil
	}
	return a.asker.Run(ctx, userID, question)
}
