package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"hajzi/pkg/logger"
)

// Manager tracks live connections and the chat rooms they joined. Rooms are
// keyed by chat id and exist only while at least one connection is joined.
type Manager struct {
	clients           map[string]*Client
	rooms             map[string]map[*Client]bool
	handler           InboundHandler
	messagesPerSecond int
	mutex             sync.RWMutex
}

// NewManager creates a manager whose clients may send messagesPerSecond
// inbound frames each.
func NewManager(messagesPerSecond int) *Manager {
	if messagesPerSecond <= 0 {
		messagesPerSecond = 10
	}
	return &Manager{
		clients:           make(map[string]*Client),
		rooms:             make(map[string]map[*Client]bool),
		messagesPerSecond: messagesPerSecond,
	}
}

// SetHandler installs the application callbacks for inbound frames.
func (m *Manager) SetHandler(h InboundHandler) {
	m.mutex.Lock()
	m.handler = h
	m.mutex.Unlock()
}

// Attach wraps conn in a registered client using the manager's inbound rate.
func (m *Manager) Attach(conn *websocket.Conn, identity string) *Client {
	client := NewClient(conn, identity, m.messagesPerSecond)
	m.Register(client)
	return client
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	m.clients[client.ID] = client
	m.mutex.Unlock()
	logger.Debug("Client registered: %s (%s)", client.ID, client.Identity)
}

// Unregister drops the client from every room and closes its send channel.
func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client.ID)
	for roomID := range client.rooms {
		m.leaveLocked(client, roomID)
	}
	m.mutex.Unlock()

	client.close()
	logger.Debug("Client unregistered: %s (%s)", client.ID, client.Identity)
}

func (m *Manager) Join(client *Client, roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[*Client]bool)
		m.rooms[roomID] = members
	}
	members[client] = true
	client.rooms[roomID] = true
}

func (m *Manager) Leave(client *Client, roomID string) {
	m.mutex.Lock()
	m.leaveLocked(client, roomID)
	m.mutex.Unlock()
}

func (m *Manager) leaveLocked(client *Client, roomID string) {
	delete(client.rooms, roomID)
	if members, ok := m.rooms[roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// Publish encodes an event frame and delivers it to the room's local members.
func (m *Manager) Publish(ctx context.Context, roomID, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, roomID, payload)
	if err != nil {
		return err
	}
	m.BroadcastLocal(roomID, frame)
	return nil
}

// BroadcastLocal queues an encoded frame on every member of the room and
// returns how many members accepted it. Members whose buffer is full are
// disconnected.
func (m *Manager) BroadcastLocal(roomID string, frame []byte) int {
	m.mutex.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for c := range m.rooms[roomID] {
		members = append(members, c)
	}
	m.mutex.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		logger.Warn("Dropping slow client %s from room %s", c.ID, roomID)
		m.Unregister(c)
	}
	return delivered
}

func (m *Manager) RoomSize(roomID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[roomID])
}

func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) inboundHandler() InboundHandler {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.handler
}
