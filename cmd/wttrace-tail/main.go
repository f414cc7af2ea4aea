// Command wttrace-tail prints the telemetry feed mirrored by a running
// wttrace console (started with --relay).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/wiredtiger/wttrace/internal/relay"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "wttrace-tail: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("wttrace-tail", pflag.ContinueOnError)
	url := flagSet.StringP("url", "u", "ws://127.0.0.1:8090/ws", "relay WebSocket URL")
	token := flagSet.String("token", os.Getenv("WTTRACE_RELAY_TOKEN"), "relay token (default $WTTRACE_RELAY_TOKEN)")
	showState := flagSet.Bool("state", false, "also print session state changes")
	verbose := flagSet.BoolP("verbose", "v", false, "log connection events")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return relay.NewClient(*url, *token, logger).Follow(ctx, func(u relay.Update) error {
		return printUpdate(out, u, *showState)
	})
}

func printUpdate(out io.Writer, u relay.Update, showState bool) error {
	switch u.Type {
	case relay.MsgTrace:
		_, err := fmt.Fprintf(out, "%s %6d %s %s\n",
			u.Trace.At.Format(time.TimeOnly), u.Trace.Seq, u.Trace.From, u.Trace.Text)
		return err
	case relay.MsgState:
		if !showState {
			return nil
		}
		_, err := fmt.Fprintf(out, "# probes=%s running=%d listener=%s selected=%d\n",
			u.State.Probes, u.State.Running, u.State.Listener, u.State.Selected)
		return err
	}
	return nil
}
