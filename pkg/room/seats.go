package room

import (
	"fmt"

	"github.com/coinche/core/pkg/apperr"
)

// Join implements the join operation. If seatIndex is nil the
// first empty seat is used; otherwise that exact seat must be empty.
// Join has no spectator mode and the room tracks no spectator list: a
// spectator simply does not occupy a seat.
func (r *Room) Join(identity string, seatIndex *int) (int, error) {
	if identity == "" {
		return -1, apperr.New(apperr.InvalidPayload, fmt.Errorf("identity is required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return -1, apperr.Newf(apperr.IllegalMove, "room %s is not accepting joins (status=%s)", r.id, r.status)
	}
	if r.locked {
		return -1, apperr.Newf(apperr.IllegalMove, "room %s is locked", r.id)
	}
	for _, s := range r.seats {
		if s.Identity == identity {
			return -1, apperr.Newf(apperr.IllegalMove, "%s is already seated", identity)
		}
	}

	seat := -1
	if seatIndex != nil {
		if *seatIndex < 0 || *seatIndex >= SeatCount {
			return -1, apperr.New(apperr.InvalidPayload, fmt.Errorf("seat index %d out of range", *seatIndex))
		}
		if r.seats[*seatIndex].occupied() {
			return -1, apperr.Newf(apperr.IllegalMove, "seat %d is already occupied", *seatIndex)
		}
		seat = *seatIndex
	} else {
		for i, s := range r.seats {
			if !s.occupied() {
				seat = i
				break
			}
		}
		if seat == -1 {
			return -1, apperr.Newf(apperr.IllegalMove, "room %s is full", r.id)
		}
	}

	r.seats[seat] = Seat{Identity: identity}
	r.publish(EventPlayerJoined, map[string]any{"identity": identity, "seat": seat})
	return seat, nil
}

func (r *Room) seatOfLocked(identity string) int {
	for i, s := range r.seats {
		if s.Identity == identity {
			return i
		}
	}
	return -1
}

// Leave implements the leave operation: vacates identity's seat.
// A room already in progress cannot be left this way — the underlying Game
// handles disconnect/forfeit, not the room.
func (r *Room) Leave(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return apperr.Newf(apperr.IllegalMove, "cannot leave room %s once it has started (status=%s)", r.id, r.status)
	}
	seat := r.seatOfLocked(identity)
	if seat < 0 {
		return apperr.New(apperr.NotFound, fmt.Errorf("%s is not seated in room %s", identity, r.id))
	}
	r.seats[seat] = Seat{}
	r.publish(EventPlayerLeft, map[string]any{"identity": identity, "seat": seat})
	return nil
}

// RemoveSeat implements the host-kick: only the host may evict
// another occupant.
func (r *Room) RemoveSeat(hostID, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hostID != r.hostID {
		return apperr.New(apperr.Forbidden, fmt.Errorf("only the host may remove a seat"))
	}
	if r.status != StatusLobby {
		return apperr.Newf(apperr.IllegalMove, "cannot remove a seat once room %s has started", r.id)
	}
	seat := r.seatOfLocked(target)
	if seat < 0 {
		return apperr.New(apperr.NotFound, fmt.Errorf("%s is not seated in room %s", target, r.id))
	}
	r.seats[seat] = Seat{}
	r.publish(EventPlayerLeft, map[string]any{"identity": target, "seat": seat, "kicked": true})
	return nil
}

// ToggleReady implements the ready-toggle operation.
func (r *Room) ToggleReady(identity string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return false, apperr.Newf(apperr.IllegalMove, "room %s is not in the lobby", r.id)
	}
	seat := r.seatOfLocked(identity)
	if seat < 0 {
		return false, apperr.New(apperr.NotFound, fmt.Errorf("%s is not seated in room %s", identity, r.id))
	}
	r.seats[seat].Ready = !r.seats[seat].Ready
	r.publish(EventRoomUpdated, map[string]any{"identity": identity, "ready": r.seats[seat].Ready})
	return r.seats[seat].Ready, nil
}

// Lock prevents further joins without affecting seated occupants; only the
// host may lock or unlock.
func (r *Room) Lock(hostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hostID != r.hostID {
		return apperr.New(apperr.Forbidden, fmt.Errorf("only the host may lock the room"))
	}
	r.locked = true
	r.publish(EventRoomUpdated, map[string]any{"locked": true})
	return nil
}

// Unlock reverses Lock.
func (r *Room) Unlock(hostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hostID != r.hostID {
		return apperr.New(apperr.Forbidden, fmt.Errorf("only the host may unlock the room"))
	}
	r.locked = false
	r.publish(EventRoomUpdated, map[string]any{"locked": false})
	return nil
}

// BotIdentityFactory names the bot assigned to an empty seat.
type BotIdentityFactory func(seat int) string

// FillWithBots implements the fill-with-bots: every empty seat
// gets a bot identity from factory and is auto-readied.
func (r *Room) FillWithBots(factory BotIdentityFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusLobby {
		return apperr.Newf(apperr.IllegalMove, "room %s is not in the lobby", r.id)
	}
	for i := range r.seats {
		if r.seats[i].occupied() {
			continue
		}
		identity := factory(i)
		r.seats[i] = Seat{Identity: identity, Ready: true, IsBot: true}
		r.publish(EventPlayerJoined, map[string]any{"identity": identity, "seat": i, "bot": true})
	}
	return nil
}

// IsBotIdentity reports whether identity occupies a bot seat in this room. Intended
// to be handed to bot.Driver.OnStateChanged as the IsBot predicate.
func (r *Room) IsBotIdentity(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	seat := r.seatOfLocked(identity)
	if seat < 0 {
		return false
	}
	return r.seats[seat].IsBot
}
