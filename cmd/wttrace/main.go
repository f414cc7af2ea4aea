// Command wttrace is an interactive console for choosing which functions of
// a library to trace, running the probes that trace them and watching the
// telemetry they send back.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/wiredtiger/wttrace/internal/app"
	"github.com/wiredtiger/wttrace/internal/config"
	"github.com/wiredtiger/wttrace/internal/logging"
	"github.com/wiredtiger/wttrace/internal/probe"
	"github.com/wiredtiger/wttrace/internal/relay"
	"github.com/wiredtiger/wttrace/internal/session"
	"github.com/wiredtiger/wttrace/internal/symbols"
	"github.com/wiredtiger/wttrace/internal/telemetry"
	"github.com/wiredtiger/wttrace/internal/views/tracelog"
)

const resolveTimeout = time.Minute

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "wttrace: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// exitError carries a process exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func run(args []string) error {
	var (
		lib        string
		configPath string
		host       string
		port       int
		relayAddr  string
		logFile    string
		logLevel   string
	)

	flagSet := pflag.NewFlagSet("wttrace", pflag.ContinueOnError)
	flagSet.StringVarP(&lib, "lib", "l", "", "path to the shared library to trace (required)")
	flagSet.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flagSet.StringVar(&host, "host", "", "telemetry listener address (default from config, 127.0.0.1)")
	flagSet.IntVar(&port, "port", 0, fmt.Sprintf("telemetry listener port (default from config, %d)", config.DefaultPort))
	flagSet.StringVar(&relayAddr, "relay", "", "serve the telemetry feed over WebSocket on this address")
	flagSet.StringVar(&logFile, "log-file", "", "also write JSON log records to this file")
	flagSet.StringVar(&logLevel, "log-level", "", "minimum log level: debug, info, warn, error")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(os.Stderr)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return usageError("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	rest := flagSet.Args()
	if lib == "" && len(rest) > 0 {
		lib, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return usageError("unexpected argument: %s", rest[0])
	}
	if lib == "" {
		printHelp(flagSet)
		return usageError("--lib is required")
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return usageError("config: %v", err)
	}
	if flagSet.Changed("host") {
		cfg.Listener.Host = host
	}
	if flagSet.Changed("port") {
		cfg.Listener.Port = port
	}
	if flagSet.Changed("relay") {
		cfg.Relay.Addr = relayAddr
	}
	if flagSet.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return usageError("config: %v", err)
	}
	level, _ := cfg.Log.SlogLevel()

	resolveCtx, cancelResolve := context.WithTimeout(context.Background(), resolveTimeout)
	catalog, err := symbols.Load(resolveCtx, symbols.CommandResolver{Command: cfg.Resolver.Command}, lib)
	cancelResolve()
	if err != nil {
		return err
	}

	traceLog := tracelog.New(cfg.Log.Scrollback)
	logger, closer, err := logging.New(traceLog, logging.Options{Level: level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer closer.Close()

	logger.Info("symbols resolved", "lib", lib, "count", catalog.Len())
	if n := catalog.Duplicates(); n > 0 {
		logger.Warn("duplicate symbols folded", "count", n)
	}

	opts := session.Options{
		Lib:        lib,
		ListenHost: cfg.Listener.Host,
		ListenPort: cfg.Listener.Port,
		Logger:     logger,
	}
	var relayServer *relay.Server
	if cfg.Relay.Addr != "" {
		broadcaster := relay.NewBroadcaster(logger)
		relayServer = relay.NewServer(broadcaster, relay.Options{
			Token:          cfg.Relay.Token,
			AllowedOrigins: cfg.Relay.AllowedOrigins,
			Logger:         logger,
		})
		opts.Publisher = broadcaster
	}

	orch := probe.New(probe.ExecSpawner{}, probe.Options{
		Lib:      lib,
		Host:     cfg.Listener.Host,
		Port:     cfg.Listener.Port,
		Commands: cfg.Probes.Commands(),
		Logger:   logger,
	})
	sess := session.New(catalog, orch, telemetry.NewIngester(cfg.Listener.BufferSize), traceLog, opts)
	defer func() {
		sess.Shutdown()
		logger.Info("session closed", "summary", sess.Describe())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := app.New(sess, traceLog, app.Options{StatsInterval: cfg.StatsInterval, HelpStyle: "dark"})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	relayCtx, cancelRelay := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(relayCtx)
	g.Go(func() error {
		defer cancelRelay()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	if relayServer != nil {
		g.Go(func() error {
			// The console keeps running without the relay.
			if err := relayServer.ListenAndServe(gctx, cfg.Relay.Addr); err != nil {
				logger.Error("relay failure", "addr", cfg.Relay.Addr, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `wttrace: choose functions of a library to trace and watch the results live.

Symbols are read from the library with the configured resolver. Pick a
symbol, move to the metrics pane and toggle latency, frequency or stack
collection, then press r to start one probe per metric. Probe output
arrives over UDP and is shown in the trace pane.

Usage:
  wttrace --lib PATH [flags]
  wttrace PATH [flags]

Examples:
  wttrace --lib build/libwiredtiger.so
  wttrace -l build/libwiredtiger.so --port 9000 --relay 127.0.0.1:8090

Flags:
`)
	flagSet.PrintDefaults()
}
