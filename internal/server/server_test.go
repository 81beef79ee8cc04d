package server

import (
	"context"
	"testing"
	"time"

	"github.com/codecollab/codecollab/internal/stats"
	"github.com/codecollab/codecollab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newTestCollabServer creates a CollabServer for testing purposes. Counter
// updates are allowed but not asserted unless the test sets stricter
// expectations first.
func newTestCollabServer(t *testing.T, su *stats.MockStatsUpdater) *CollabServer {
	su.On("RegisterMetric", mock.Anything).Times(4)
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()

	cs, err := NewCollabServer(testutil.TestLogger(t), su)
	if err != nil {
		t.Fatalf("failed to create test CollabServer: %v", err)
	}
	return cs
}

func joinMsg(c *Client, roomId, displayName string) *ClientMessage {
	return &ClientMessage{
		Join:   &Join{RoomId: roomId, DisplayName: displayName},
		client: c,
	}
}

// recv pops the next queued message for the client, failing if none is
// pending.
func recv(t *testing.T, c *Client) *ServerMessage {
	t.Helper()

	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatalf("expected a queued message for connection %s", c.id)
		return nil
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()

	select {
	case msg := <-c.send:
		t.Fatalf("expected no queued message for connection %s, got %+v", c.id, msg)
	default:
	}
}

func TestNewCollabServer(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(4)

	cs, err := NewCollabServer(testutil.TestLogger(t), su)
	assert.NoError(t, err, "expected no error creating CollabServer")
	assert.NotNil(t, cs, "expected CollabServer to be non-nil")
	assert.NotNil(t, cs.registry, "expected registry to be initialized")
	assert.NotNil(t, cs.registerChan, "expected registerChan to be initialized")
	assert.NotNil(t, cs.deregisterChan, "expected deregisterChan to be initialized")
	assert.NotNil(t, cs.eventChan, "expected eventChan to be initialized")
	assert.NotNil(t, cs.clients, "expected clients map to be initialized")
}

func Test_handleJoin(t *testing.T) {
	t.Run("first member receives snapshot only", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))

		msg := recv(t, a)
		assert.NotNil(t, msg.MemberList, "expected member list snapshot for the joiner")
		assert.Equal(t, "R1", msg.MemberList.RoomId)
		assert.Equal(t, []string{"Alice"}, msg.MemberList.Members)
		assertNoMessage(t, a)
	})

	t.Run("existing members are notified, joiner gets snapshot", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		recv(t, a) // drain Alice's snapshot

		cs.dispatch(joinMsg(b, "R1", "Bob"))

		aliceMsg := recv(t, a)
		assert.NotNil(t, aliceMsg.MemberJoined, "expected member joined notification for Alice")
		assert.Equal(t, "Bob", aliceMsg.MemberJoined.DisplayName)
		assert.Equal(t, "conn-b", aliceMsg.MemberJoined.ConnectionId)
		assert.Equal(t, []string{"Alice", "Bob"}, aliceMsg.MemberJoined.Members)

		bobMsg := recv(t, b)
		assert.NotNil(t, bobMsg.MemberList, "expected snapshot for Bob, not a join notification")
		assert.Equal(t, []string{"Alice", "Bob"}, bobMsg.MemberList.Members)
		assertNoMessage(t, b)
	})

	t.Run("joining a second room implicitly leaves the first", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))
		recv(t, a) // snapshot
		recv(t, a) // Bob joined
		recv(t, b) // snapshot

		cs.dispatch(joinMsg(b, "R2", "Bob"))

		leftMsg := recv(t, a)
		assert.NotNil(t, leftMsg.MemberLeft, "expected Alice to see Bob leave R1")
		assert.Equal(t, "Bob", leftMsg.MemberLeft.DisplayName)
		assert.Equal(t, []string{"Alice"}, leftMsg.MemberLeft.Members)

		roomId, ok := cs.registry.RoomOf(b)
		assert.True(t, ok)
		assert.Equal(t, "R2", roomId, "expected Bob to be registered in R2 only")
		assert.Equal(t, []string{"Alice"}, cs.registry.MemberNames("R1"))
	})

	t.Run("join with empty room id is rejected", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		cs.dispatch(joinMsg(a, "", "Alice"))

		msg := recv(t, a)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, 400, msg.Response.ResponseCode)
		assert.Zero(t, cs.registry.NumRooms())
	})
}

func Test_handleLeave(t *testing.T) {
	t.Run("leave broadcasts to remaining members", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))
		recv(t, a)
		recv(t, a)
		recv(t, b)

		cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: b})

		msg := recv(t, a)
		assert.NotNil(t, msg.MemberLeft)
		assert.Equal(t, "Bob", msg.MemberLeft.DisplayName)
		assert.Equal(t, "conn-b", msg.MemberLeft.ConnectionId)
		assert.Equal(t, []string{"Alice"}, msg.MemberLeft.Members)

		// the leaver has already departed and is not notified
		assertNoMessage(t, b)
	})

	t.Run("leaving a room never joined is a silent no-op", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		recv(t, a)

		cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: b})

		assertNoMessage(t, a)
		assertNoMessage(t, b)
		assert.Equal(t, []string{"Alice"}, cs.registry.MemberNames("R1"))
	})

	t.Run("room entry is removed once empty", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))

		cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: a})
		cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: b})

		assert.Zero(t, cs.registry.NumRooms(), "expected no empty-room residue")
	})
}

func Test_handleDisconnect(t *testing.T) {
	t.Run("disconnect broadcasts exactly one member left", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))
		recv(t, a)
		recv(t, a)
		recv(t, b)

		cs.handleDisconnect(b)

		msg := recv(t, a)
		assert.NotNil(t, msg.MemberLeft)
		assert.Equal(t, "Bob", msg.MemberLeft.DisplayName)
		assert.Equal(t, []string{"Alice"}, msg.MemberLeft.Members)
		assertNoMessage(t, a)

		_, ok := cs.registry.RoomOf(b)
		assert.False(t, ok, "expected no trace of the disconnected connection")
	})

	t.Run("disconnect before join is a no-op", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		cs.handleDisconnect(a)

		assert.Zero(t, cs.registry.NumRooms())
	})
}

func Test_relayCodeEdit(t *testing.T) {
	t.Run("code edit excludes sender", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))
		recv(t, a)
		recv(t, a)
		recv(t, b)

		cs.dispatch(&ClientMessage{CodeEdit: &CodeEdit{RoomId: "R1", Code: "x"}, client: a})

		msg := recv(t, b)
		assert.NotNil(t, msg.CodeUpdate)
		assert.Equal(t, "x", msg.CodeUpdate.Code)
		assertNoMessage(t, a)
	})

	t.Run("code edit from non-member is rejected", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		recv(t, a)

		cs.dispatch(&ClientMessage{CodeEdit: &CodeEdit{RoomId: "R1", Code: "x"}, client: b})

		msg := recv(t, b)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, 403, msg.Response.ResponseCode)
		assertNoMessage(t, a)
	})
}

func Test_relayLanguageSwitch(t *testing.T) {
	cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

	a := newTestClient("conn-a", "")
	b := newTestClient("conn-b", "")
	cs.dispatch(joinMsg(a, "R1", "Alice"))
	cs.dispatch(joinMsg(b, "R1", "Bob"))
	recv(t, a)
	recv(t, a)
	recv(t, b)

	cs.dispatch(&ClientMessage{LanguageSwitch: &LanguageSwitch{RoomId: "R1", Language: "python"}, client: b})

	msg := recv(t, a)
	assert.NotNil(t, msg.LanguageUpdate)
	assert.Equal(t, "python", msg.LanguageUpdate.Language)
	assertNoMessage(t, b)
}

func Test_relayChat(t *testing.T) {
	t.Run("chat includes sender", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		b := newTestClient("conn-b", "")
		cs.dispatch(joinMsg(a, "R1", "Alice"))
		cs.dispatch(joinMsg(b, "R1", "Bob"))
		recv(t, a)
		recv(t, a)
		recv(t, b)

		sent := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		cs.dispatch(&ClientMessage{
			Chat:   &Chat{RoomId: "R1", Content: "hello", DisplayName: "Alice", Timestamp: sent},
			client: a,
		})

		for _, c := range []*Client{a, b} {
			msg := recv(t, c)
			assert.NotNilf(t, msg.Chat, "expected chat echo for connection %s", c.id)
			assert.Equal(t, "hello", msg.Chat.Content)
			assert.Equal(t, "Alice", msg.Chat.DisplayName)
			assert.Equal(t, "conn-a", msg.Chat.ConnectionId, "expected server to stamp the sender's connection id")
			assert.Equal(t, sent, msg.Chat.Timestamp, "expected client-supplied timestamp to pass through")
		}
	})

	t.Run("chat from non-member is rejected", func(t *testing.T) {
		cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

		a := newTestClient("conn-a", "")
		cs.dispatch(&ClientMessage{Chat: &Chat{RoomId: "R1", Content: "hi"}, client: a})

		msg := recv(t, a)
		assert.NotNil(t, msg.Response)
		assert.Equal(t, 403, msg.Response.ResponseCode)
	})
}

func Test_relayExecutionResult(t *testing.T) {
	cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

	a := newTestClient("conn-a", "")
	b := newTestClient("conn-b", "")
	cs.dispatch(joinMsg(a, "R1", "Alice"))
	cs.dispatch(joinMsg(b, "R1", "Bob"))
	recv(t, a)
	recv(t, a)
	recv(t, b)

	cs.dispatch(&ClientMessage{ExecutionResult: &ExecutionResult{RoomId: "R1", Output: "42\n"}, client: a})

	msg := recv(t, b)
	assert.NotNil(t, msg.ExecutionResult)
	assert.Equal(t, "42\n", msg.ExecutionResult.Output)
	assertNoMessage(t, a)
}

func Test_broadcastScopedToRoom(t *testing.T) {
	cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

	a := newTestClient("conn-a", "")
	b := newTestClient("conn-b", "")
	cs.dispatch(joinMsg(a, "R1", "Alice"))
	cs.dispatch(joinMsg(b, "R2", "Bob"))
	recv(t, a)
	recv(t, b)

	cs.dispatch(&ClientMessage{CodeEdit: &CodeEdit{RoomId: "R2", Code: "y"}, client: b})

	assertNoMessage(t, a)
}

func Test_roomCountMetrics(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Times(4)
	su.On("Incr", numActiveRoomsMetric).Once()
	su.On("Decr", numActiveRoomsMetric).Once()
	defer su.AssertExpectations(t)

	cs, err := NewCollabServer(testutil.TestLogger(t), su)
	assert.NoError(t, err)

	a := newTestClient("conn-a", "")
	b := newTestClient("conn-b", "")
	cs.dispatch(joinMsg(a, "R1", "Alice"))
	cs.dispatch(joinMsg(b, "R1", "Bob"))

	cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: a})
	cs.dispatch(&ClientMessage{Leave: &Leave{RoomId: "R1"}, client: b})
}

func Test_endToEndScenario(t *testing.T) {
	cs := newTestCollabServer(t, &stats.MockStatsUpdater{})

	a := newTestClient("conn-a", "")
	cs.dispatch(joinMsg(a, "R1", "Alice"))

	msg := recv(t, a)
	assert.NotNil(t, msg.MemberList)
	assert.Equal(t, []string{"Alice"}, msg.MemberList.Members)

	b := newTestClient("conn-b", "")
	cs.dispatch(joinMsg(b, "R1", "Bob"))

	msg = recv(t, a)
	assert.NotNil(t, msg.MemberJoined)
	assert.Equal(t, "Bob", msg.MemberJoined.DisplayName)
	assert.Equal(t, []string{"Alice", "Bob"}, msg.MemberJoined.Members)

	msg = recv(t, b)
	assert.NotNil(t, msg.MemberList)
	assert.Equal(t, []string{"Alice", "Bob"}, msg.MemberList.Members)

	cs.handleDisconnect(b)

	msg = recv(t, a)
	assert.NotNil(t, msg.MemberLeft)
	assert.Equal(t, "Bob", msg.MemberLeft.DisplayName)
	assert.Equal(t, []string{"Alice"}, msg.MemberLeft.Members)

	_, ok := cs.registry.RoomOf(b)
	assert.False(t, ok, "expected the registry to have no trace of Bob")
}

func Test_relayLoopShutdown(t *testing.T) {
	cs := newTestCollabServer(t, &stats.MockStatsUpdater{})
	go cs.Run()

	a := newTestClient("conn-a", "")
	cs.RegisterClient(a)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := cs.Shutdown(ctx)
	assert.NoError(t, err, "expected clean shutdown")

	select {
	case <-a.stop:
		// connection was told to stop
	case <-time.After(time.Second):
		t.Error("timeout: client was not stopped on shutdown")
	}
}
