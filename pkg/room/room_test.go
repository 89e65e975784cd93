package room_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinche/core/pkg/game"
	"github.com/coinche/core/pkg/room"
)

func newTestRoom(t *testing.T) *room.Room {
	t.Helper()
	return room.New(room.Config{ID: "r1", HostID: "host", Seed: 1})
}

func TestJoinAssignsFirstEmptySeat(t *testing.T) {
	r := newTestRoom(t)
	seat, err := r.Join("p0", nil)
	require.NoError(t, err)
	require.Equal(t, 0, seat)

	seat, err = r.Join("p1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, seat)
}

func TestJoinRejectsDuplicateIdentity(t *testing.T) {
	r := newTestRoom(t)
	_, err := r.Join("p0", nil)
	require.NoError(t, err)
	_, err = r.Join("p0", nil)
	require.Error(t, err)
}

func TestJoinRejectsOccupiedExplicitSeat(t *testing.T) {
	r := newTestRoom(t)
	seatZero := 0
	_, err := r.Join("p0", &seatZero)
	require.NoError(t, err)
	_, err = r.Join("p1", &seatZero)
	require.Error(t, err)
}

func TestStartFailsUntilAllSeatsReady(t *testing.T) {
	r := newTestRoom(t)
	for i := 0; i < room.SeatCount; i++ {
		_, err := r.Join(identityFor(i), nil)
		require.NoError(t, err)
	}
	_, err := r.Start("g1")
	require.Error(t, err, "no seat is ready yet")

	for i := 0; i < room.SeatCount; i++ {
		_, err := r.ToggleReady(identityFor(i))
		require.NoError(t, err)
	}

	g, err := r.Start("g1")
	require.NoError(t, err)
	require.Equal(t, room.StatusInProgress, r.Status())
	require.True(t, r.Locked())
	require.Equal(t, game.PhaseBidding, g.CurrentPhase())
}

func TestStartFailsWhenLocked(t *testing.T) {
	r := newTestRoom(t)
	for i := 0; i < room.SeatCount; i++ {
		_, err := r.Join(identityFor(i), nil)
		require.NoError(t, err)
		_, err = r.ToggleReady(identityFor(i))
		require.NoError(t, err)
	}
	require.NoError(t, r.Lock("host"))

	_, err := r.Start("g1")
	require.Error(t, err)
}

func TestFillWithBotsOccupiesEmptySeatsReady(t *testing.T) {
	r := newTestRoom(t)
	_, err := r.Join("p0", nil)
	require.NoError(t, err)

	err = r.FillWithBots(func(seat int) string { return identityFor(seat) + "-bot" })
	require.NoError(t, err)

	seats := r.Seats()
	require.Equal(t, "p0", seats[0].Identity)
	for i := 1; i < room.SeatCount; i++ {
		require.True(t, seats[i].IsBot)
		require.True(t, seats[i].Ready)
	}
}

func TestRemoveSeatOnlyByHost(t *testing.T) {
	r := newTestRoom(t)
	_, err := r.Join("p0", nil)
	require.NoError(t, err)

	err = r.RemoveSeat("not-host", "p0")
	require.Error(t, err)

	err = r.RemoveSeat("host", "p0")
	require.NoError(t, err)

	seats := r.Seats()
	require.Empty(t, seats[0].Identity)
}

func TestLeaveVacatesSeat(t *testing.T) {
	r := newTestRoom(t)
	_, err := r.Join("p0", nil)
	require.NoError(t, err)

	require.NoError(t, r.Leave("p0"))
	seats := r.Seats()
	require.Empty(t, seats[0].Identity)

	require.Error(t, r.Leave("p0"), "leaving twice should fail, p0 is no longer seated")
}

func identityFor(seat int) string {
	return [room.SeatCount]string{"p0", "p1", "p2", "p3"}[seat]
}
