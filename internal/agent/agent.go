package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/devices"
	"github.com/chris/greenclass/internal/engine"
	"github.com/chris/greenclass/internal/llm"
	"github.com/chris/greenclass/internal/store"
)

const (
	maxToolRounds      = 10
	defaultLeaderboard = 5
)

type Deps struct {
	Client    llm.Client
	Engine    *engine.Engine
	Schedules store.Schedules
	Ledger    store.Ledger
	Devices   store.Devices
	Clock     func() time.Time
	Rand      *rand.Rand
}

type Agent struct {
	client    llm.Client
	engine    *engine.Engine
	schedules store.Schedules
	ledger    store.Ledger
	devices   store.Devices
	clock     func() time.Time
	rnd       *rand.Rand
}

func New(d Deps) *Agent {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Agent{
		client:    d.Client,
		engine:    d.Engine,
		schedules: d.Schedules,
		ledger:    d.Ledger,
		devices:   d.Devices,
		clock:     d.Clock,
		rnd:       d.Rand,
	}
}

// Run answers one question for userID, running the tool-calling loop until
// the model returns plain text. Each run starts from a fresh context block.
func (a *Agent) Run(ctx context.Context, userID, question string) (string, error) {
	preamble := a.BuildContext(ctx, userID)
	messages := []llm.Message{{Role: "user", Content: preamble + "\n\n## Question\n" + question}}

	for i := 0; i < maxToolRounds; i++ {
		resp, err := a.client.Chat(ctx, llm.SystemPrompt, messages, llm.AgentTools)
		if err != nil {
			return "", fmt.Errorf("llm chat: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			result := a.executeTool(ctx, userID, tc.Name, tc.Params)
			slog.Debug("agent tool", "user", userID, "tool", tc.Name, "result", truncate(result, 200))
			messages = append(messages, llm.Message{
				Role:       "user",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "I hit the maximum number of tool calls. Try asking something narrower.", nil
}

func (a *Agent) executeTool(ctx context.Context, userID, name string, params map[string]any) string {
	var result any
	var err error

	switch name {
	case "get_time":
		now := a.clock()
		result = map[string]any{
			"local": now.Format(time.RFC3339),
			"time":  bell.ClockOf(now).String(),
			"date":  now.Format("2006-01-02"),
			"day":   now.Weekday().String(),
		}

	case "get_bell_schedule":
		result = a.engine.Calendar().Periods()

	case "get_schedule":
		labels, ok, e := a.schedules.Schedule(ctx, userID)
		switch {
		case e != nil:
			err = e
		case !ok:
			result = map[string]any{"schedule": nil, "message": "no schedule submitted yet"}
		default:
			result = map[string]any{"schedule": labels}
		}

	case "get_recommendations":
		result, err = a.engine.Analyze(ctx, userID, bell.ClockOf(a.clock()))

	case "get_points":
		p, e := a.ledger.Points(ctx, userID)
		if e != nil {
			err = e
		} else {
			result = map[string]any{"points": p}
		}

	case "money_saved":
		p, e := a.ledger.Points(ctx, userID)
		if e != nil {
			err = e
		} else {
			result = map[string]any{"points": p, "tenge": p * devices.TengePerPoint, "text": devices.MoneySaved(p)}
		}

	case "leaderboard":
		limit, ok := getInt(params, "limit")
		if !ok || limit <= 0 {
			limit = defaultLeaderboard
		}
		result, err = a.ledger.Top(ctx, int(limit))

	case "list_devices":
		result, err = a.devices.ListDevices(ctx, userID)

	case "toggle_device":
		devName, _ := getString(params, "name")
		status, e := a.devices.ToggleDevice(ctx, userID, devName)
		if e != nil {
			err = e
		} else {
			result = map[string]any{"name": devName, "status": status}
		}

	case "forecast_load":
		devs, e := a.devices.ListDevices(ctx, userID)
		if e != nil {
			err = e
		} else {
			active := devices.Active(devs)
			result = map[string]any{"active": active, "watts": devices.ForecastWatts(active, a.rnd)}
		}

	default:
		result = map[string]any{"error": "unknown tool: " + name}
	}

	if err != nil {
		result = map[string]any{"error": err.Error()}
	}

	b, _ := json.Marshal(result) // result is always a simple map or slice; marshal cannot fail
	return string(b)
}

// Param extraction helpers. LLMs send numbers as float64 in JSON.
func getInt(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func getString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
