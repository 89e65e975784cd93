// Command coinchesrv hosts one in-process coinche orchestration server: the
// room registry, event fabric, and bot driver described by pkg/server. It
// has no transport of its own — wiring a network-facing frontend onto
// pkg/server.Server is an explicit external-collaborator concern.
//
// Grounded on cmd/pokersrv/main.go (flag-driven config, a logging backend
// shared by every subsystem logger, one long-running server instance,
// graceful shutdown on signal). The gRPC listener and SQLite persistence
// that command wires in have no home here: transport framing and durable
// storage are both explicit non-goals of this core (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/coinche/core/pkg/bot"
	"github.com/coinche/core/pkg/server"
)

func main() {
	var (
		debugLevel    string
		seed          int64
		targetScore   int
		minThinkMs    int
		maxThinkMs    int
		heartbeatSecs int
	)
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for bot decisions (0 = random)")
	flag.IntVar(&targetScore, "targetscore", 0, "Cumulative score a team must reach to win a match (0 = default)")
	flag.IntVar(&minThinkMs, "botminthinkms", 0, "Minimum bot think delay in milliseconds (0 = default)")
	flag.IntVar(&maxThinkMs, "botmaxthinkms", 0, "Maximum bot think delay in milliseconds (0 = default)")
	flag.IntVar(&heartbeatSecs, "heartbeatsecs", 0, "Seconds between system.heartbeat events (0 = default)")
	flag.Parse()

	backend := slog.NewBackend(os.Stderr)
	level, ok := slog.LevelFromString(debugLevel)
	if !ok {
		level = slog.LevelInfo
	}

	logs := server.Loggers{
		Server: backend.Logger("SRVR"),
		Rooms:  backend.Logger("ROOM"),
		Events: backend.Logger("EVNT"),
		Bots:   backend.Logger("BOT "),
	}
	logs.Server.SetLevel(level)
	logs.Rooms.SetLevel(level)
	logs.Events.SetLevel(level)
	logs.Bots.SetLevel(level)

	srv := server.NewServer(server.Config{
		Log:               logs,
		TargetScore:       targetScore,
		HeartbeatInterval: time.Duration(heartbeatSecs) * time.Second,
		Bots: bot.DriverConfig{
			MinThink: time.Duration(minThinkMs) * time.Millisecond,
			MaxThink: time.Duration(maxThinkMs) * time.Millisecond,
			Seed:     seed,
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logs.Server.Infof("coinchesrv: starting (debuglevel=%s)", debugLevel)
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Run(ctx)
	}()

	<-ctx.Done()
	logs.Server.Infof("coinchesrv: shutdown signal received, draining")
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "coinchesrv: shutdown timed out")
	}
}
