package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coinche/core/pkg/bot"
	"github.com/coinche/core/pkg/game"
	"github.com/coinche/core/pkg/room"
	"github.com/coinche/core/pkg/rules"
	"github.com/coinche/core/pkg/server"
)

func TestCreateRoomJoinAndStartProducesABiddingGame(t *testing.T) {
	srv := server.NewServer(server.Config{TargetScore: 500})
	_, err := srv.CreateRoom(server.CreateRoomRequest{RoomID: "r1", HostID: "p0", Seed: 42})
	require.NoError(t, err)

	for i := 0; i < room.SeatCount; i++ {
		identity := identityFor(i)
		_, err := srv.JoinRoom("r1", identity, nil)
		require.NoError(t, err)
		_, err = srv.ToggleReady("r1", identity)
		require.NoError(t, err)
	}

	g, err := srv.StartRoom("r1")
	require.NoError(t, err)
	require.Equal(t, game.PhaseBidding, g.CurrentPhase())

	snap, err := srv.GetState("r1")
	require.NoError(t, err)
	require.Equal(t, game.PhaseBidding, snap.Status)
}

func TestFillWithBotsThenStartEventuallyAdvancesStateVersion(t *testing.T) {
	srv := server.NewServer(server.Config{
		Bots: bot.DriverConfig{MinThink: 5 * time.Millisecond, MaxThink: 15 * time.Millisecond, Seed: 7},
	})
	_, err := srv.CreateRoom(server.CreateRoomRequest{RoomID: "r2", HostID: "host", Seed: 1})
	require.NoError(t, err)
	require.NoError(t, srv.FillWithBots("r2"))

	g, err := srv.StartRoom("r2")
	require.NoError(t, err)
	require.Equal(t, int64(1), g.StateVersion())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if g.StateVersion() > 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Greater(t, g.StateVersion(), int64(1), "an all-bot room should advance bidding on its own")
}

func TestListEventsAfterStartIncludesRoundStarted(t *testing.T) {
	srv := server.NewServer(server.Config{})
	_, err := srv.CreateRoom(server.CreateRoomRequest{RoomID: "r3", HostID: "host", Seed: 2})
	require.NoError(t, err)
	for i := 0; i < room.SeatCount; i++ {
		identity := identityFor(i)
		_, err := srv.JoinRoom("r3", identity, nil)
		require.NoError(t, err)
		_, err = srv.ToggleReady("r3", identity)
		require.NoError(t, err)
	}

	_, err = srv.SubscribePublic("r3")
	require.Error(t, err, "subscribing before the room has started a game should fail")

	_, err = srv.StartRoom("r3")
	require.NoError(t, err)

	evs, err := srv.ListEvents("r3", 0)
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	require.Equal(t, game.EventRoundStarted, evs[0].Type)
}

func TestSubscribePublicReceivesBidPlacedAfterStart(t *testing.T) {
	srv := server.NewServer(server.Config{})
	_, err := srv.CreateRoom(server.CreateRoomRequest{RoomID: "r4", HostID: "host", Seed: 2})
	require.NoError(t, err)
	for i := 0; i < room.SeatCount; i++ {
		identity := identityFor(i)
		_, err := srv.JoinRoom("r4", identity, nil)
		require.NoError(t, err)
		_, err = srv.ToggleReady("r4", identity)
		require.NoError(t, err)
	}
	g, err := srv.StartRoom("r4")
	require.NoError(t, err)

	sub, err := srv.SubscribePublic("r4")
	require.NoError(t, err)
	defer srv.Unsubscribe(sub)

	caller := identityFor(g.TurnCursor())
	_, err = srv.SubmitBid("r4", caller, "a1", rules.KindClubs, rules.MinBidValue)
	require.NoError(t, err)

	select {
	case ev := <-sub.Events:
		require.Equal(t, game.EventBidPlaced, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bid.placed")
	}
}

func TestSubmitBidThroughServerRejectsWrongCaller(t *testing.T) {
	srv := server.NewServer(server.Config{})
	_, err := srv.CreateRoom(server.CreateRoomRequest{RoomID: "r5", HostID: "host", Seed: 3})
	require.NoError(t, err)
	for i := 0; i < room.SeatCount; i++ {
		identity := identityFor(i)
		_, err := srv.JoinRoom("r5", identity, nil)
		require.NoError(t, err)
		_, err = srv.ToggleReady("r5", identity)
		require.NoError(t, err)
	}
	g, err := srv.StartRoom("r5")
	require.NoError(t, err)

	wrongCaller := identityFor((g.TurnCursor() + 1) % room.SeatCount)
	_, err = srv.SubmitBid("r5", wrongCaller, "a1", rules.KindClubs, rules.MinBidValue)
	require.Error(t, err)
}

func identityFor(seat int) string {
	return [room.SeatCount]string{"p0", "p1", "p2", "p3"}[seat]
}
