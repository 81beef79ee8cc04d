package server

import (
	"context"
	"log"

	"github.com/codecollab/codecollab/internal/stats"
)

const (
	numConnectionsMetric     = "NumConnections"
	numActiveRoomsMetric     = "NumActiveRooms"
	numRelayedEventsMetric   = "NumRelayedEvents"
	numDroppedMessagesMetric = "NumDroppedMessages"
)

type stopReq struct {
	done chan struct{}
}

// CollabServer is the presence and relay engine. All registry mutations run
// on the single Run loop, so no two lifecycle events interleave mid-step.
type CollabServer struct {
	log            *log.Logger
	stats          stats.StatsProvider
	registry       *Registry
	clients        map[*Client]struct{}
	registerChan   chan *Client
	deregisterChan chan *Client
	eventChan      chan *ClientMessage
	stop           chan stopReq
}

func NewCollabServer(logger *log.Logger, su stats.StatsProvider) (*CollabServer, error) {
	cs := &CollabServer{
		log:            logger,
		stats:          su,
		registry:       NewRegistry(),
		clients:        make(map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		eventChan:      make(chan *ClientMessage, 256),
		stop:           make(chan stopReq),
	}

	su.RegisterMetric(numConnectionsMetric)
	su.RegisterMetric(numActiveRoomsMetric)
	su.RegisterMetric(numRelayedEventsMetric)
	su.RegisterMetric(numDroppedMessagesMetric)

	return cs, nil
}

// RegisterClient hands a freshly upgraded connection to the relay loop.
func (cs *CollabServer) RegisterClient(c *Client) {
	cs.registerChan <- c
}

func (cs *CollabServer) Run() {
	for {
		select {
		case client := <-cs.registerChan:
			cs.log.Printf("adding connection %s", client.id)
			cs.clients[client] = struct{}{}
			cs.stats.Incr(numConnectionsMetric)
		case client := <-cs.deregisterChan:
			cs.log.Printf("removing connection %s", client.id)
			cs.handleDisconnect(client)
			delete(cs.clients, client)
			cs.stats.Decr(numConnectionsMetric)
		case msg := <-cs.eventChan:
			cs.dispatch(msg)
		case req := <-cs.stop:
			cs.log.Println("stopping relay, closing connections")
			for c := range cs.clients {
				c.stopClient()
			}
			close(req.done)
			return
		}
	}
}

func (cs *CollabServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *CollabServer) dispatch(msg *ClientMessage) {
	switch {
	case msg.Join != nil:
		cs.handleJoin(msg)
	case msg.Leave != nil:
		cs.handleLeave(msg)
	case msg.CodeEdit != nil:
		cs.relayCodeEdit(msg)
	case msg.LanguageSwitch != nil:
		cs.relayLanguageSwitch(msg)
	case msg.Chat != nil:
		cs.relayChat(msg)
	case msg.ExecutionResult != nil:
		cs.relayExecutionResult(msg)
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (cs *CollabServer) handleJoin(msg *ClientMessage) {
	c := msg.client
	join := msg.Join

	if join.RoomId == "" {
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	// a connection is a member of at most one room: joining a new room
	// implicitly leaves the old one, broadcast included
	if cur, ok := cs.registry.RoomOf(c); ok && cur != join.RoomId {
		cs.leaveRoom(cur, c)
	}

	c.displayName = join.DisplayName

	before := cs.registry.NumRooms()
	cs.registry.Register(join.RoomId, c)
	if cs.registry.NumRooms() > before {
		cs.stats.Incr(numActiveRoomsMetric)
	}

	members := cs.registry.MemberNames(join.RoomId)

	cs.broadcast(join.RoomId, &ServerMessage{
		MemberJoined: &MemberJoined{
			RoomId:       join.RoomId,
			DisplayName:  c.displayName,
			ConnectionId: c.id,
			Members:      members,
		},
	}, c)

	// the joiner gets a snapshot instead of the join notification
	c.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{Id: msg.Id, Timestamp: Now()},
		MemberList: &MemberList{
			RoomId:  join.RoomId,
			Members: members,
		},
	})

	cs.log.Printf("%q joined room %q", c.displayName, join.RoomId)
}

// handleLeave is a no-op if the client is not a member of the named room.
func (cs *CollabServer) handleLeave(msg *ClientMessage) {
	cs.leaveRoom(msg.Leave.RoomId, msg.client)
}

func (cs *CollabServer) handleDisconnect(c *Client) {
	before := cs.registry.NumRooms()
	roomId, ok := cs.registry.Unregister(c)
	if !ok {
		// connection never joined a room
		return
	}
	if cs.registry.NumRooms() < before {
		cs.stats.Decr(numActiveRoomsMetric)
	}

	cs.broadcastLeft(roomId, c)
}

func (cs *CollabServer) leaveRoom(roomId string, c *Client) {
	before := cs.registry.NumRooms()
	if !cs.registry.UnregisterFromRoom(roomId, c) {
		return
	}
	if cs.registry.NumRooms() < before {
		cs.stats.Decr(numActiveRoomsMetric)
	}

	cs.broadcastLeft(roomId, c)
	cs.log.Printf("%q left room %q", c.displayName, roomId)
}

func (cs *CollabServer) broadcastLeft(roomId string, c *Client) {
	cs.broadcast(roomId, &ServerMessage{
		MemberLeft: &MemberLeft{
			RoomId:       roomId,
			DisplayName:  c.displayName,
			ConnectionId: c.id,
			Members:      cs.registry.MemberNames(roomId),
		},
	}, nil)
}

func (cs *CollabServer) relayCodeEdit(msg *ClientMessage) {
	if !cs.requireMembership(msg, msg.CodeEdit.RoomId) {
		return
	}

	cs.broadcast(msg.CodeEdit.RoomId, &ServerMessage{
		CodeUpdate: &CodeUpdate{Code: msg.CodeEdit.Code},
	}, msg.client)
	cs.stats.Incr(numRelayedEventsMetric)
}

func (cs *CollabServer) relayLanguageSwitch(msg *ClientMessage) {
	if !cs.requireMembership(msg, msg.LanguageSwitch.RoomId) {
		return
	}

	cs.broadcast(msg.LanguageSwitch.RoomId, &ServerMessage{
		LanguageUpdate: &LanguageUpdate{Language: msg.LanguageSwitch.Language},
	}, msg.client)
	cs.stats.Incr(numRelayedEventsMetric)
}

// relayChat echoes to every member including the sender, so the sender's UI
// renders from the echo. The client-supplied timestamp is passed through.
func (cs *CollabServer) relayChat(msg *ClientMessage) {
	if !cs.requireMembership(msg, msg.Chat.RoomId) {
		return
	}

	chat := *msg.Chat
	chat.ConnectionId = msg.client.id

	cs.broadcast(chat.RoomId, &ServerMessage{Chat: &chat}, nil)
	cs.stats.Incr(numRelayedEventsMetric)
}

func (cs *CollabServer) relayExecutionResult(msg *ClientMessage) {
	if !cs.requireMembership(msg, msg.ExecutionResult.RoomId) {
		return
	}

	cs.broadcast(msg.ExecutionResult.RoomId, &ServerMessage{
		ExecutionResult: msg.ExecutionResult,
	}, msg.client)
	cs.stats.Incr(numRelayedEventsMetric)
}

// requireMembership rejects content events from connections not joined to
// the named room with an explicit error instead of a silent drop.
func (cs *CollabServer) requireMembership(msg *ClientMessage, roomId string) bool {
	if cur, ok := cs.registry.RoomOf(msg.client); !ok || cur != roomId {
		msg.client.queueMessage(ErrNotInRoom(msg.Id))
		return false
	}

	return true
}

// broadcast fans a message out to every member of the room except skip.
// Delivery is best effort: members with full send buffers miss the message.
func (cs *CollabServer) broadcast(roomId string, msg *ServerMessage, skip *Client) {
	msg.Timestamp = Now()

	for _, client := range cs.registry.Members(roomId) {
		if client == skip {
			continue
		}

		if !client.queueMessage(msg) {
			cs.stats.Incr(numDroppedMessagesMetric)
		}
	}
}
