package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/use-agent/harvest/api"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/dispatch"
	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/queue"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("harvest starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"workers", cfg.Worker.Count,
		"maxPages", cfg.Browser.MaxPages,
	)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	// ── 3. Initialise persistence ───────────────────────────────────
	var st store.Store
	if cfg.Store.PostgresDSN != "" {
		pg, err := store.NewPostgres(bootCtx, cfg.Store.PostgresDSN)
		if err != nil {
			slog.Error("failed to initialise postgres store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		slog.Info("using postgres store")
	} else {
		st = store.NewMemory()
		slog.Warn("no postgres DSN configured, using in-memory store (data is volatile)")
	}

	// ── 3b. Initialise job queue ────────────────────────────────────
	var q queue.Queue
	if cfg.Queue.RedisAddr != "" {
		rq, err := queue.NewRedis(bootCtx, cfg.Queue.RedisAddr, cfg.Queue.Key)
		if err != nil {
			slog.Error("failed to initialise redis queue", "error", err)
			os.Exit(1)
		}
		q = rq
		slog.Info("using redis queue", "addr", cfg.Queue.RedisAddr, "key", cfg.Queue.Key)
	} else {
		q = queue.NewMemory(0)
		slog.Warn("no redis address configured, using in-process queue")
	}
	defer q.Close()

	// ── 4. Initialise browser (launches Chrome) ─────────────────────
	browser, err := scraper.NewBrowser(cfg.Browser, cfg.Scrape)
	if err != nil {
		slog.Error("failed to initialise browser", "error", err)
		os.Exit(1)
	}
	defer browser.Close()

	// ── 5. Initialise extraction engine and CSV sink ────────────────
	engine := extract.New(extract.Config{
		SelectorTimeout: cfg.Scrape.SelectorTimeout,
		TitleTimeout:    cfg.Scrape.TitleTimeout,
		SettleDelay:     cfg.Scrape.SettleDelay,
		MaxImages:       cfg.Scrape.MaxImages,
	})

	var sink dispatch.Sink
	if cfg.Export.CSVPath != "" {
		sink = export.NewCSV(cfg.Export.CSVPath)
	}

	// ── 6. Start the dispatcher worker pool ─────────────────────────
	opener := dispatch.OpenerFunc(func(ctx context.Context, url string) (dispatch.Session, error) {
		return browser.Open(ctx, url)
	})
	d := dispatch.New(st, q, opener, engine, sink, dispatch.Config{
		Workers:     cfg.Worker.Count,
		TaskTimeout: cfg.Scrape.TaskTimeout,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	d.Start(workerCtx, &wg)

	// ── 7. Setup router and HTTP server ─────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(st, d, browser, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Stop accepting requests first, then let in-flight tasks finish.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	stopWorkers()
	wg.Wait()
	slog.Info("worker pool drained")

	// browser.Close(), q.Close(), pg.Close() run via defer.
	slog.Info("harvest stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
