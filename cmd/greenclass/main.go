package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chris/greenclass/config"
	"github.com/chris/greenclass/internal/agent"
	"github.com/chris/greenclass/internal/assistant"
	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/db"
	"github.com/chris/greenclass/internal/discord"
	"github.com/chris/greenclass/internal/engine"
	"github.com/chris/greenclass/internal/httpapi"
	"github.com/chris/greenclass/internal/llm"
	"github.com/chris/greenclass/internal/logging"
	"github.com/chris/greenclass/internal/metrics"
	"github.com/chris/greenclass/internal/scheduler"
	"github.com/chris/greenclass/internal/service"
	"github.com/chris/greenclass/internal/store"
)

// cliUser owns the state created from the interactive prompt.
const cliUser = "local"

const usage = `usage: greenclass [command]

commands:
  run        start the assistant (default)
  install    install and enable the systemd user service
  uninstall  disable and remove the service
  start | stop | restart | status | logs
`

func main() {
	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "run":
		run()
		return
	case "install":
		err = service.Install()
	case "uninstall":
		err = service.Uninstall()
	case "start":
		err = service.Start()
	case "stop":
		err = service.Stop()
	case "restart":
		err = service.Restart()
	case "status":
		err = service.Status()
	case "logs":
		err = service.Logs()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the three state interfaces behind whichever backends the
// configuration selects.
type stores struct {
	schedules store.Schedules
	ledger    store.Ledger
	devices   store.Devices
	closers   []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			slog.Warn("closing store", "err", err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, periods int) (*stores, error) {
	s := &stores{}
	if cfg.DatabasePath != "" {
		database, err := db.Open(cfg.DatabasePath, periods)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.schedules, s.ledger, s.devices = database, database, database
		s.closers = append(s.closers, database)
		slog.Info("using sqlite store", "path", cfg.DatabasePath)
	} else {
		mem := store.NewMemory(periods)
		s.schedules, s.ledger, s.devices = mem, mem, mem
		slog.Info("using in-memory store; state is lost on restart")
	}

	if cfg.RedisURL != "" {
		ledger, err := store.OpenRedisLedger(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening redis ledger: %w", err)
		}
		s.ledger = ledger
		s.closers = append(s.closers, ledger)
		slog.Info("using redis points ledger")
	}
	return s, nil
}

func loadCalendar(path string) (*bell.Calendar, error) {
	if path == "" {
		return bell.Default(), nil
	}
	return bell.LoadFile(path)
}

func run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, logCloser, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("configuring logging: %v", err)
	}
	defer logCloser.Close()

	cal, err := loadCalendar(cfg.BellCalendarPath)
	if err != nil {
		log.Fatalf("loading bell calendar: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, cal.Len())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	eng := engine.New(cal, st.schedules, st.ledger, m)

	deps := assistant.Deps{
		Engine:    eng,
		Schedules: st.schedules,
		Ledger:    st.ledger,
		Devices:   st.devices,
		Logger:    logger,
	}
	if llmCfg := cfg.LLM(); llmCfg.Configured() {
		client, err := llm.NewClient(llmCfg)
		if err != nil {
			log.Fatalf("failed to create LLM client: %v", err)
		}
		deps.Asker = agent.New(agent.Deps{
			Client:    client,
			Engine:    eng,
			Schedules: st.schedules,
			Ledger:    st.ledger,
			Devices:   st.devices,
		})
		logger.Info("/ask enabled", "provider", llmCfg.Provider)
	}
	asst := assistant.New(deps)

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.New(httpapi.Config{Calendar: cal, Ledger: st.ledger, Gatherer: reg, Logger: logger}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := scheduler.Options{
		Interval:   cfg.BroadcastInterval,
		WebhookURL: cfg.DiscordWebhook,
		Logger:     logger,
		Metrics:    m,
	}

	// If Discord token is set, run as bot
	if cfg.DiscordToken != "" {
		runBot(ctx, cfg, asst, eng, st.schedules, opts)
		return
	}

	// Otherwise, CLI mode: reminders print to stdout.
	opts.DM = scheduler.SenderFunc(func(_ context.Context, userID, content string) error {
		fmt.Printf("\n[reminder for %s]\n%s\n", userID, content)
		return nil
	})
	runCLI(ctx, asst, eng, st.schedules, opts)
}

func runBot(ctx context.Context, cfg *config.Config, asst *assistant.Assistant, eng *engine.Engine, schedules store.Schedules, opts scheduler.Options) {
	bot, err := discord.NewBot(cfg.DiscordToken, asst, opts.Logger)
	if err != nil {
		log.Fatalf("failed to start Discord bot: %v", err)
	}
	defer bot.Close()

	opts.DM = scheduler.SenderFunc(bot.SendDM)
	b := scheduler.New(eng, schedules, opts)
	if err := b.Start(); err != nil {
		log.Fatalf("starting broadcaster: %v", err)
	}
	defer b.Stop()

	slog.Info("bot is running. Press Ctrl+C to exit.")
	<-ctx.Done()
	slog.Info("shutting down.")
}

func runCLI(ctx context.Context, asst *assistant.Assistant, eng *engine.Engine, schedules store.Schedules, opts scheduler.Options) {
	b := scheduler.New(eng, schedules, opts)
	if err := b.Start(); err != nil {
		log.Fatalf("starting broadcaster: %v", err)
	}
	defer b.Stop()

	// Check if stdin is a pipe (non-interactive)
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0

	// A schedule spans several lines, so piped input is one message.
	if isPipe {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("reading stdin: %v", err)
		}
		fmt.Println(asst.Handle(ctx, cliUser, string(data)))
		return
	}

	fmt.Println(`Type a command (/help), or paste a schedule and finish it with an empty line.`)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var pending []string
	fmt.Print("greenclass> ")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			input := strings.TrimSpace(line)
			if input == "exit" || input == "quit" {
				return
			}
			// Commands go straight through; other text accumulates until
			// a blank line so a schedule can be typed line by line.
			if len(pending) == 0 && (strings.HasPrefix(input, "/") || strings.HasPrefix(input, "add ")) {
				fmt.Println(asst.Handle(ctx, cliUser, input))
			} else if input != "" {
				pending = append(pending, input)
				continue
			} else if len(pending) > 0 {
				fmt.Println(asst.Handle(ctx, cliUser, strings.Join(pending, "\n")))
				pending = nil
			}
			fmt.Print("greenclass> ")
		}
	}
}
