// Package server is the orchestration layer that ties the rules kernel,
// game state machine, event fabric, and bot driver into one running
// process: one Server per process owning the room registry, the event
// fabric, and the bot driver, and exposing every inbound operation as a
// plain Go method with no transport framing.
//
// Its shape (a registry behind a mutex, one logger per subsystem, a
// validate -> mutate -> publish -> return method style) migrated out of a
// poker-over-gRPC server into dedicated packages here instead of being
// kept in one file: the table registry became pkg/room, notification
// streams became pkg/events, snapshot projection became pkg/game. See
// DESIGN.md.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/pbnjay/memory"

	"github.com/coinche/core/pkg/bot"
	"github.com/coinche/core/pkg/events"
	"github.com/coinche/core/pkg/game"
	"github.com/coinche/core/pkg/room"
)

// Loggers groups the per-subsystem slog.Logger values NewServer wires up
// individually, one per concern, all sharing a backend.
type Loggers struct {
	Server slog.Logger
	Rooms  slog.Logger
	Events slog.Logger
	Bots   slog.Logger
}

func (l Loggers) orDisabled() Loggers {
	if l.Server == nil {
		l.Server = slog.Disabled
	}
	if l.Rooms == nil {
		l.Rooms = slog.Disabled
	}
	if l.Events == nil {
		l.Events = slog.Disabled
	}
	if l.Bots == nil {
		l.Bots = slog.Disabled
	}
	return l
}

// Config configures a new Server.
type Config struct {
	Log Loggers

	TargetScore       int           // forwarded to every room this server creates; 0 uses game.DefaultTargetScore
	HeartbeatInterval time.Duration // 0 uses events.DefaultHeartbeatInterval
	Bots              bot.DriverConfig

	// QueueSize/SubscriberBuffer override the memory-derived sizing below.
	// Left at 0, the server sizes both from the host's available memory.
	QueueSize        int
	SubscriberBuffer int
}

// Server is the single process-wide owner of every room, game, and bot
// scheduled against it.
type Server struct {
	log Loggers

	rooms       *room.Manager
	dispatcher  *events.Dispatcher
	heartbeat   *events.Heartbeater
	bots        *bot.Driver
	diagnostics *Diagnostics

	targetScore int

	mu        sync.RWMutex
	gameRooms map[string]*room.Room // gameID -> owning room, for bot nudges and lookups

	cancelBackground context.CancelFunc
}

// poolSizingFromMemory derives the event fabric's queue and per-subscriber
// buffer depths from total system memory: more memory, deeper buffers, up
// to a fixed ceiling so one very large host doesn't unbound the queue.
func poolSizingFromMemory() (queueSize, subscriberBuffer int) {
	const (
		baselineBytes  = 1 << 30 // 1 GiB: the tier the default sizing below assumes
		maxScale       = 8
		baseQueue      = 256
		baseSubscriber = 32
	)
	scale := memory.TotalMemory() / baselineBytes
	if scale < 1 {
		scale = 1
	}
	if scale > maxScale {
		scale = maxScale
	}
	return baseQueue * int(scale), baseSubscriber * int(scale)
}

// NewServer builds a Server with its event fabric already started. Call Run
// to start the heartbeat loop.
func NewServer(cfg Config) *Server {
	log := cfg.Log.orDisabled()

	queueSize, subBuf := cfg.QueueSize, cfg.SubscriberBuffer
	if queueSize <= 0 || subBuf <= 0 {
		derivedQueue, derivedBuf := poolSizingFromMemory()
		if queueSize <= 0 {
			queueSize = derivedQueue
		}
		if subBuf <= 0 {
			subBuf = derivedBuf
		}
	}
	log.Server.Debugf("sizing event fabric: queue=%d subscriberBuffer=%d (%d MiB total memory)",
		queueSize, subBuf, memory.TotalMemory()/(1<<20))

	dispatcher := events.NewDispatcher(events.DispatcherConfig{
		QueueSize:        queueSize,
		SubscriberBuffer: subBuf,
		Log:              log.Events,
	})
	dispatcher.Start()

	botCfg := cfg.Bots
	botCfg.Log = log.Bots
	driver := bot.NewDriver(botCfg)

	targetScore := cfg.TargetScore
	if targetScore <= 0 {
		targetScore = game.DefaultTargetScore
	}

	s := &Server{
		log:         log,
		rooms:       room.NewManager(),
		dispatcher:  dispatcher,
		bots:        driver,
		targetScore: targetScore,
		gameRooms:   make(map[string]*room.Room),
	}
	s.heartbeat = events.NewHeartbeater(dispatcher, cfg.HeartbeatInterval)
	s.diagnostics = NewDiagnostics(log, 0)
	return s
}

// Run starts the heartbeat and self-diagnostics loops and blocks until ctx
// is cancelled, then stops the event fabric. Intended to be launched in its
// own goroutine by cmd/coinchesrv.
func (s *Server) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelBackground = cancel
	go s.heartbeat.Run(ctx)
	go s.diagnostics.Run(ctx)
	<-ctx.Done()
	s.dispatcher.Stop()
}

// Shutdown stops the background loops started by Run, if any.
func (s *Server) Shutdown() {
	if s.cancelBackground != nil {
		s.cancelBackground()
	}
}

// gameHub is the game.Publisher every room-started Game is wired with: it
// forwards to the event fabric and, for the event types that change who
// may legally act, nudges the bot driver from a new goroutine. Publish runs
// with the Game's own lock held, so calling back into the Game
// synchronously here would deadlock — the same reason saveTableStateAsync
// sends its notifications from their own goroutine rather than inline.
type gameHub struct {
	srv *Server
}

func (h *gameHub) Publish(ev game.Event) {
	h.srv.dispatcher.Publish(ev)
	switch ev.Type {
	case game.EventBidPlaced, game.EventBidPassed, game.EventBidDoubled, game.EventBidRedoubled,
		game.EventContractFinalized, game.EventMoveAccepted, game.EventTrickCompleted,
		game.EventTurnChanged, game.EventRoundStarted, game.EventRoundCompleted:
		go h.srv.nudgeBots(ev.GameID)
	}
}

// roomHub is the room.Publisher every Room is wired with. Room events have
// no dedicated fan-out fabric of their own — the replayable,
// subscriber-addressed event model is for games, not the pre-game lobby —
// so they are just logged for operator visibility.
type roomHub struct {
	log slog.Logger
}

func (h *roomHub) Publish(ev room.Event) {
	h.log.Debugf("room %s: %s %v", ev.RoomID, ev.Type, ev.Payload)
}

// nudgeBots looks up gameID's owning room and asks the bot driver to act
// for it, using the room's seat occupancy to decide who is bot-controlled.
func (s *Server) nudgeBots(gameID string) {
	s.mu.RLock()
	r, ok := s.gameRooms[gameID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	g := r.Game()
	if g == nil {
		return
	}
	s.bots.OnStateChanged(g, r.IsBotIdentity)
}

func (s *Server) registerGameRoom(gameID string, r *room.Room) {
	s.mu.Lock()
	s.gameRooms[gameID] = r
	s.mu.Unlock()
}

func (s *Server) forgetGameRoom(gameID string) {
	s.mu.Lock()
	delete(s.gameRooms, gameID)
	s.mu.Unlock()
}

// gameIDFor derives a game id from a room id; rooms and games are 1:1 once
// started, so the room id doubles as a stable, human-legible game id.
func gameIDFor(roomID string) string {
	return fmt.Sprintf("%s-game", roomID)
}
