// Package scheduler runs the broadcaster: on a fixed cadence it re-analyses
// every stored schedule and pushes the result to its owner.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/metrics"
	"github.com/chris/greenclass/internal/store"
)

// DefaultInterval is the pause between sweeps.
const DefaultInterval = 2400 * time.Second

var (
	ErrAlreadyRunning = errors.New("broadcaster already running")
	ErrNoDelivery     = errors.New("no delivery method available")
)

// Sender delivers a message to one user.
type Sender interface {
	Send(ctx context.Context, userID, content string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, userID, content string) error

func (f SenderFunc) Send(ctx context.Context, userID, content string) error {
	return f(ctx, userID, content)
}

// Analyzer is the slice of the engine the broadcaster needs.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, now bell.Clock) ([]string, error)
}

type Options struct {
	Interval time.Duration
	// DM is tried first; the webhook is the fallback.
	DM         Sender
	WebhookURL string
	HTTPClient *http.Client
	Clock      func() time.Time
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

type Broadcaster struct {
	cron       *cron.Cron
	interval   time.Duration
	engine     Analyzer
	schedules  store.Schedules
	dm         Sender
	webhookURL string
	http       *http.Client
	clock      func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	entryID cron.EntryID
	running bool
}

// SweepReport summarises one sweep.
type SweepReport struct {
	RunID          string
	Users          int
	Delivered      int
	Failed         int
	AnalysisErrors int
}

func New(engine Analyzer, schedules store.Schedules, opts Options) *Broadcaster {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Broadcaster{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default())))),
		interval:   opts.Interval,
		engine:     engine,
		schedules:  schedules,
		dm:         opts.DM,
		webhookURL: opts.WebhookURL,
		http:       opts.HTTPClient,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Start registers the sweep job. The first sweep fires one interval later.
func (b *Broadcaster) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	spec := fmt.Sprintf("@every %s", b.interval)
	id, err := b.cron.AddFunc(spec, func() { b.Sweep(ctx) })
	if err != nil {
		cancel()
		return fmt.Errorf("registering sweep %q: %w", spec, err)
	}
	b.entryID = id
	b.cancel = cancel
	b.running = true
	b.cron.Start()

	b.logger.Info("broadcaster started", "interval", b.interval)
	return nil
}

// Stop cancels any in-flight sweep and waits for it to return.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.cancel()
	b.cron.Remove(b.entryID)
	b.mu.Unlock()

	<-b.cron.Stop().Done()
	b.logger.Info("broadcaster stopped")
}

// Sweep analyses and delivers for every user known at the moment it starts.
// One user's failure never aborts the rest; nothing is retried until the
// next sweep.
func (b *Broadcaster) Sweep(ctx context.Context) SweepReport {
	report := SweepReport{RunID: uuid.NewString()}
	logger := b.logger.With("run", report.RunID)

	ids, err := b.schedules.UserIDs(ctx)
	if err != nil {
		logger.Error("sweep: listing users", "err", err)
		return report
	}
	sort.Strings(ids)
	report.Users = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Warn("sweep cancelled", "remaining", len(ids)-report.Delivered-report.Failed-report.AnalysisErrors)
			break
		}
		lines, err := b.engine.Analyze(ctx, id, bell.ClockOf(b.clock()))
		if err != nil {
			report.AnalysisErrors++
			logger.Error("sweep: analysis failed", "user", id, "err", err)
			continue
		}
		if err := b.deliver(ctx, id, strings.Join(lines, "\n")); err != nil {
			report.Failed++
			logger.Warn("sweep: delivery failed", "user", id, "err", err)
			continue
		}
		report.Delivered++
	}

	b.metrics.ObserveSweep(report.Users)
	logger.Info("sweep completed",
		"users", report.Users,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"analysis_errors", report.AnalysisErrors,
	)
	return report
}

func (b *Broadcaster) deliver(ctx context.Context, userID, content string) error {
	var dmErr error
	if b.dm != nil {
		if dmErr = b.dm.Send(ctx, userID, content); dmErr == nil {
			b.metrics.ObserveDelivery(metrics.OutcomeDM)
			return nil
		}
		b.logger.Debug("DM send failed, trying webhook", "user", userID, "err", dmErr)
	}
	if b.webhookURL != "" {
		if err := postWebhook(ctx, b.http, b.webhookURL, mention(userID)+content); err != nil {
			b.metrics.ObserveDelivery(metrics.OutcomeFailed)
			return errors.Join(dmErr, err)
		}
		b.metrics.ObserveDelivery(metrics.OutcomeWebhook)
		return nil
	}
	b.metrics.ObserveDelivery(metrics.OutcomeFailed)
	if dmErr != nil {
		return dmErr
	}
	return ErrNoDelivery
}

func mention(userID string) string {
	return "<@" + userID + ">\n"
}

func postWebhook(ctx context.Context, client *http.Client, url, content string) error {
	body, _ := json.Marshal(map[string]string{"content": content})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
