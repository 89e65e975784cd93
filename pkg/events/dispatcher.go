// Package events is the fabric that fans a Game's append-only event log out
// to live subscribers. A Dispatcher implements
// game.Publisher: every Game configured with one gets its events pushed
// through a bounded queue and a single ordering worker, which then fans
// each event out concurrently to every matching subscriber so one slow
// subscriber cannot delay delivery to the others.
//
// Grounded on pkg/server/events.go's EventProcessor (bounded queue, worker
// pool draining into per-concern handlers) and pkg/server/notifications.go's
// per-player stream registry (subscribe/unsubscribe under a mutex),
// generalized from "one gRPC stream per player" to "one channel per
// (gameId, scope) subscription".
package events

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/coinche/core/pkg/game"

	"github.com/decred/slog"
)

// subKey identifies one subscription slot within a game: "public" or
// "private:<seatIdentity>".
type subKey string

const publicKey subKey = "public"

func privateKey(identity string) subKey { return subKey("private:" + identity) }

// Subscription is a single subscriber's inbox. Events arrive on Events in
// the order the dispatcher processed them; the subscriber is responsible
// for draining it. Close via the Dispatcher's Unsubscribe, not directly.
type Subscription struct {
	gameID string
	key    subKey
	Events chan game.Event
	done   chan struct{}
}

// queuedEvent pairs an event with the game it belongs to, since a single
// Dispatcher instance is shared by every game wired to it, one per Server
// rather than one per game.
type queuedEvent struct {
	gameID string
	event  game.Event
}

// Dispatcher fans out events published by any number of Game aggregates.
// The zero value is not usable; construct with NewDispatcher.
type Dispatcher struct {
	log slog.Logger

	queue    chan queuedEvent
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	subs    map[string]map[subKey]map[*Subscription]struct{} // gameID -> subKey -> subscriber set

	subscriberBuffer int
}

// DispatcherConfig configures queue and per-subscriber buffer sizes. Zero
// values fall back to sane defaults.
type DispatcherConfig struct {
	QueueSize        int
	SubscriberBuffer int
	Log              slog.Logger
}

const (
	defaultQueueSize        = 256
	defaultSubscriberBuffer = 32
)

// NewDispatcher builds a Dispatcher. Call Start before publishing and Stop
// on shutdown.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	subBuf := cfg.SubscriberBuffer
	if subBuf <= 0 {
		subBuf = defaultSubscriberBuffer
	}
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	return &Dispatcher{
		log:              log,
		queue:            make(chan queuedEvent, queueSize),
		stopChan:         make(chan struct{}),
		subs:             make(map[string]map[subKey]map[*Subscription]struct{}),
		subscriberBuffer: subBuf,
	}
}

// Start begins the single ordering worker. Idempotent.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.run()
}

// Stop halts the dispatcher, waiting for the event being delivered to
// finish; events still in the queue are not delivered. Idempotent.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()
}

// Publish implements game.Publisher. Never blocks the caller: a full queue
// drops the event with a logged error.
func (d *Dispatcher) Publish(ev game.Event) {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		d.log.Warnf("events: dispatcher not started, dropping %s for game %s", ev.Type, ev.GameID)
		return
	}
	select {
	case d.queue <- queuedEvent{gameID: ev.GameID, event: ev}:
	default:
		d.log.Errorf("events: queue full, dropping %s for game %s", ev.Type, ev.GameID)
	}
}

// run is the single ordering worker. Processing one event fully (including
// waiting for every subscriber's fan-out push to finish) before starting
// the next is what gives every subscriber an in-order delivery guarantee —
// a pool of workers pulling off the same queue could race two events to
// the same subscriber's channel out of order, so this dispatcher
// intentionally runs exactly one worker rather than a pool.
func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case qe := <-d.queue:
			d.deliver(qe)
		}
	}
}

// deliver fans qe out to every matching subscriber concurrently.
func (d *Dispatcher) deliver(qe queuedEvent) {
	d.mu.Lock()
	perGame, ok := d.subs[qe.gameID]
	if !ok || len(perGame) == 0 {
		d.mu.Unlock()
		return
	}
	var targets []*Subscription
	if qe.event.Scope == "public" || qe.event.Scope == "" {
		// Public events reach every subscriber of the game, private ones
		// included, so a seat's feed interleaves both in order.
		for _, set := range perGame {
			for sub := range set {
				targets = append(targets, sub)
			}
		}
	} else {
		for sub := range perGame[privateKey(qe.event.Scope)] {
			targets = append(targets, sub)
		}
	}
	d.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, sub := range targets {
		sub := sub
		g.Go(func() error {
			select {
			case <-sub.done:
			case sub.Events <- qe.event:
			default:
				d.log.Warnf("events: subscriber %s/%s buffer full, dropping %s", qe.gameID, sub.key, qe.event.Type)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SubscribePublic registers for every public event of gameID.
func (d *Dispatcher) SubscribePublic(gameID string) *Subscription {
	return d.subscribe(gameID, publicKey)
}

// SubscribePrivate registers for the private events addressed to
// seatIdentity within gameID, plus every public event of gameID.
func (d *Dispatcher) SubscribePrivate(gameID, seatIdentity string) *Subscription {
	return d.subscribe(gameID, privateKey(seatIdentity))
}

// subscribe registers a new subscription under (gameID, key). Multiple
// subscribers may share the same key — every public spectator shares
// publicKey, and a seat's own identity could be subscribed from more than
// one session — so each gets its own slot in a set rather than overwriting
// a single (gameID, key) -> *Subscription entry.
func (d *Dispatcher) subscribe(gameID string, key subKey) *Subscription {
	sub := &Subscription{
		gameID: gameID,
		key:    key,
		Events: make(chan game.Event, d.subscriberBuffer),
		done:   make(chan struct{}),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs[gameID] == nil {
		d.subs[gameID] = make(map[subKey]map[*Subscription]struct{})
	}
	if d.subs[gameID][key] == nil {
		d.subs[gameID][key] = make(map[*Subscription]struct{})
	}
	d.subs[gameID][key][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub from its game and closes its done channel so any
// in-flight fan-out push skips it.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	d.mu.Lock()
	if perGame, ok := d.subs[sub.gameID]; ok {
		if set, ok := perGame[sub.key]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(perGame, sub.key)
			}
		}
		if len(perGame) == 0 {
			delete(d.subs, sub.gameID)
		}
	}
	d.mu.Unlock()
	close(sub.done)
}

// activeGames returns the ids of games with at least one live subscriber,
// used by the heartbeat loop to know who to ping.
func (d *Dispatcher) activeGames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.subs))
	for id, perGame := range d.subs {
		count := 0
		for _, set := range perGame {
			count += len(set)
		}
		if count > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// broadcastToGame pushes ev to every subscriber of gameID, bypassing the
// ordering queue. Used only for heartbeat, which is deliberately exempt
// from the replayable log and version ordering.
func (d *Dispatcher) broadcastToGame(gameID string, ev game.Event) {
	d.mu.Lock()
	perGame := d.subs[gameID]
	var targets []*Subscription
	for _, set := range perGame {
		for sub := range set {
			targets = append(targets, sub)
		}
	}
	d.mu.Unlock()

	for _, sub := range targets {
		select {
		case <-sub.done:
		case sub.Events <- ev:
		default:
			d.log.Warnf("events: subscriber %s/%s buffer full, dropping heartbeat", gameID, sub.key)
		}
	}
}
