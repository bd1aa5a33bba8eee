// Command kvstored runs the typed key/value store server. Flags are parsed
// with github.com/spf13/pflag, GNU-style long/short flags throughout.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thebagchi/kvstored/internal/logging"
	"github.com/thebagchi/kvstored/internal/metrics"
	"github.com/thebagchi/kvstored/internal/server"
	"github.com/thebagchi/kvstored/internal/store"
)

const versionString = "kvstored " + server.Version

func main() {
	os.Exit(run())
}

func run() int {
	var (
		port       = flag.IntP("port", "p", 7379, "TCP port to listen on")
		bind       = flag.StringP("bind", "b", "127.0.0.1", "address to bind")
		dbFile     = flag.StringP("db-file", "f", "kvstore.db", "snapshot file path")
		capacity   = flag.IntP("capacity", "c", 16, "initial hash table capacity")
		workers    = flag.IntP("workers", "w", 4, "helper worker pool size (1..64)")
		daemonize  = flag.BoolP("daemonize", "d", false, "accepted for compatibility; ignored (no daemonization)")
		logFile    = flag.StringP("log-file", "l", "", "write logs to this file in addition to stderr")
		backlog    = flag.Int("backlog", 511, "listen() backlog")
		noAutoSave = flag.Bool("no-auto-save", false, "disable the save-on-shutdown convenience")
		metricsBind = flag.String("metrics-bind", "", "address:port to serve Prometheus metrics on (empty disables)")
		showHelp   = flag.BoolP("help", "h", false, "show this help message")
		showVer    = flag.BoolP("version", "v", false, "print version and exit")
	)
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return 0
	}
	if *showVer {
		fmt.Println(versionString)
		return 0
	}
	if *workers < 1 || *workers > 64 {
		fmt.Fprintln(os.Stderr, "workers must be between 1 and 64")
		return 1
	}
	_ = *daemonize // daemonizing is an operator deployment concern (systemd/init), not reimplemented here

	logger, err := logging.New("info", *logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "starting logger:", err)
		return 1
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if *metricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsBind, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	st := store.New(*capacity, m)
	if err := st.Load(*dbFile); err != nil {
		logger.Warn("initial load failed, starting empty", zap.Error(err), zap.String("file", *dbFile))
	}

	cfg := server.DefaultConfig()
	cfg.Bind = *bind
	cfg.Port = *port
	cfg.Backlog = *backlog
	cfg.Capacity = *capacity
	cfg.DBFile = *dbFile
	cfg.AutoSave = !*noAutoSave
	cfg.Workers = *workers

	srv := server.New(cfg, st, logger, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go forceExitOnSecondSignal(logger)

	logger.Info("kvstored starting",
		zap.String("bind", cfg.Bind), zap.Int("port", cfg.Port),
		zap.Int("workers", *workers), zap.String("db_file", cfg.DBFile))

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return 1
	}
	logger.Info("kvstored stopped")
	return 0
}

// forceExitOnSecondSignal implements a two-signal shutdown contract: the
// first SIGINT/SIGTERM is graceful (handled via the cancellable context
// above); a second forces immediate termination.
func forceExitOnSecondSignal(logger *zap.Logger) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	<-sigs
	logger.Warn("second shutdown signal received, forcing immediate exit")
	time.Sleep(50 * time.Millisecond)
	os.Exit(130)
}
