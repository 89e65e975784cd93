package server

import (
	"fmt"

	"github.com/coinche/core/pkg/apperr"
	"github.com/coinche/core/pkg/events"
	"github.com/coinche/core/pkg/game"
	"github.com/coinche/core/pkg/room"
	"github.com/coinche/core/pkg/rules"
)

// CreateRoomRequest carries the fields needed to open a new lobby.
type CreateRoomRequest struct {
	RoomID     string
	HostID     string
	Visibility room.Visibility
	Seed       int64
}

// CreateRoom registers a new lobby. The room's events are logged, not
// fanned out — see roomHub's doc comment.
func (s *Server) CreateRoom(req CreateRoomRequest) (*room.Room, error) {
	if req.RoomID == "" || req.HostID == "" {
		return nil, apperr.New(apperr.InvalidPayload, fmt.Errorf("roomId and hostId are required"))
	}
	return s.rooms.Create(room.Config{
		ID:            req.RoomID,
		HostID:        req.HostID,
		Visibility:    req.Visibility,
		TargetScore:   s.targetScore,
		Seed:          req.Seed,
		Publisher:     &roomHub{log: s.log.Rooms},
		GamePublisher: &gameHub{srv: s},
	})
}

// GetRoom looks up a room by id.
func (s *Server) GetRoom(roomID string) (*room.Room, error) {
	return s.rooms.Get(roomID)
}

// ListRooms implements the listRooms.
func (s *Server) ListRooms(filter room.ListFilter) []*room.Room {
	return s.rooms.List(filter)
}

// JoinRoom seats identity in roomID, auto-picking a seat unless one is given.
func (s *Server) JoinRoom(roomID, identity string, seatIndex *int) (int, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return -1, err
	}
	return r.Join(identity, seatIndex)
}

// LeaveRoom vacates identity's seat in roomID.
func (s *Server) LeaveRoom(roomID, identity string) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return r.Leave(identity)
}

// RemoveSeat lets the host evict an occupant from roomID.
func (s *Server) RemoveSeat(roomID, hostID, target string) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return r.RemoveSeat(hostID, target)
}

// ToggleReady flips identity's ready flag in roomID.
func (s *Server) ToggleReady(roomID, identity string) (bool, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return false, err
	}
	return r.ToggleReady(identity)
}

// LockRoom/UnlockRoom let the host bar or reopen a room to new joiners.
func (s *Server) LockRoom(roomID, hostID string) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return r.Lock(hostID)
}

func (s *Server) UnlockRoom(roomID, hostID string) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return r.Unlock(hostID)
}

// botIdentity names the synthetic occupant assigned to an auto-filled seat.
func botIdentity(roomID string, seat int) string {
	return fmt.Sprintf("bot:%s:%d", roomID, seat)
}

// FillWithBots seats a bot identity in every empty seat of roomID.
func (s *Server) FillWithBots(roomID string) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return r.FillWithBots(func(seat int) string { return botIdentity(roomID, seat) })
}

// StartRoom locks the room, constructs the Game, starts its first round,
// and registers the (gameID -> room) mapping the bot driver's nudges rely on.
func (s *Server) StartRoom(roomID string) (*game.Game, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	gameID := gameIDFor(roomID)
	g, err := r.Start(gameID)
	if err != nil {
		return nil, err
	}
	s.registerGameRoom(gameID, r)
	go s.nudgeBots(gameID) // in case the first seat on turn is itself a bot
	return g, nil
}

// gameOf resolves a room to its live Game, erroring if the room hasn't
// started one yet.
func (s *Server) gameOf(roomID string) (*game.Game, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	g := r.Game()
	if g == nil {
		return nil, apperr.Newf(apperr.IllegalMove, "room %s has not started a game", roomID)
	}
	return g, nil
}

// SubmitBid records a bid from caller for the game running in roomID.
func (s *Server) SubmitBid(roomID, caller, clientActionID string, kind rules.ContractKind, value int) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.SubmitBid(caller, clientActionID, kind, value)
}

// SubmitPass records a pass from caller for the game running in roomID.
func (s *Server) SubmitPass(roomID, caller, clientActionID string) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.SubmitPass(caller, clientActionID)
}

// SubmitCoinche/SubmitSurcoinche record a double or redouble from caller.
func (s *Server) SubmitCoinche(roomID, caller, clientActionID string) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.SubmitCoinche(caller, clientActionID)
}

func (s *Server) SubmitSurcoinche(roomID, caller, clientActionID string) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.SubmitSurcoinche(caller, clientActionID)
}

// SubmitPlay records a card play from caller for the game running in roomID.
func (s *Server) SubmitPlay(roomID, caller, clientActionID string, card rules.Card, expectedVersion int64) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.SubmitPlay(caller, clientActionID, card, expectedVersion)
}

// InvalidateMove lets an operator flag a previously accepted move; it emits
// move.invalidated and does not roll the move back.
func (s *Server) InvalidateMove(roomID, adminCaller, moveID string) (game.MoveResult, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	return g.InvalidateMove(adminCaller, moveID)
}

// CancelGame aborts the game running in roomID and marks the owning room
// cancelled so it stops accepting further operations.
func (s *Server) CancelGame(roomID, reason string) (game.MoveResult, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return game.MoveResult{}, err
	}
	g := r.Game()
	if g == nil {
		return game.MoveResult{}, apperr.Newf(apperr.IllegalMove, "room %s has not started a game", roomID)
	}
	result, err := g.Cancel(reason)
	if err == nil {
		r.MarkCancelled()
		s.forgetGameRoom(g.ID())
	}
	return result, err
}

// GetState returns the current public snapshot of the game in roomID.
func (s *Server) GetState(roomID string) (game.PublicSnapshot, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.PublicSnapshot{}, err
	}
	return g.GetStateSnapshot(), nil
}

// GetPrivateHand returns identity's own hand for the game in roomID.
func (s *Server) GetPrivateHand(roomID, identity string) (game.PrivateHandResponse, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return game.PrivateHandResponse{}, err
	}
	return g.GetPrivateHand(identity)
}

// ListEvents replays the in-memory event log for roomID's game after afterEventID.
func (s *Server) ListEvents(roomID string, afterEventID int64) ([]game.Event, error) {
	g, err := s.gameOf(roomID)
	if err != nil {
		return nil, err
	}
	return events.Replay(g, afterEventID), nil
}

// SubscribePublic opens a live feed of public events for roomID's game.
func (s *Server) SubscribePublic(roomID string) (*events.Subscription, error) {
	if _, err := s.gameOf(roomID); err != nil {
		return nil, err
	}
	return s.dispatcher.SubscribePublic(gameIDFor(roomID)), nil
}

// SubscribePrivate opens a live feed of identity's own private events.
func (s *Server) SubscribePrivate(roomID, identity string) (*events.Subscription, error) {
	if _, err := s.gameOf(roomID); err != nil {
		return nil, err
	}
	return s.dispatcher.SubscribePrivate(gameIDFor(roomID), identity), nil
}

// Unsubscribe tears down a live subscription.
func (s *Server) Unsubscribe(sub *events.Subscription) {
	s.dispatcher.Unsubscribe(sub)
}

// IsBot reports whether identity is a bot seat in roomID, the predicate the
// bot driver itself uses; exposed for orchestration-layer callers (e.g. a
// transport deciding whether to even open a stream for a seat).
func (s *Server) IsBot(roomID, identity string) bool {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return false
	}
	return r.IsBotIdentity(identity)
}
