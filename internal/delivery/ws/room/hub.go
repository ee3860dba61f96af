// Package ws_room fans room state out to connected participants. Every
// websocket connection is one participant session; the socket closing,
// gracefully or not, is the disconnect event that fires the store-side
// removal registered at join time.
package ws_room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avelichko/planpoker/internal/expiry"
	"github.com/avelichko/planpoker/internal/model"
	usecase_session "github.com/avelichko/planpoker/internal/usecase/session"
)

const (
	EventJoined     = "JOINED"
	EventRoomUpdate = "ROOM_UPDATE"
	EventError      = "ERROR"
)

// DefaultPollInterval bounds how late a timer expiry can be noticed.
const DefaultPollInterval = 200 * time.Millisecond

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type stateUpdate struct {
	roomID model.RoomID
	room   model.Room
}

type Hub struct {
	sessions *usecase_session.Service
	clock    expiry.Clock
	logger   *slog.Logger

	clients  map[*Client]bool
	rooms    map[model.RoomID]map[*Client]bool
	watchers map[model.RoomID]*watcher

	register   chan *Client
	unregister chan *Client
	updates    chan stateUpdate

	pollInterval time.Duration
	reactionTTL  time.Duration

	mu sync.RWMutex
}

type HubOption func(*Hub)

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithPollInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		h.pollInterval = d
	}
}

func WithReactionTTL(ttl time.Duration) HubOption {
	return func(h *Hub) {
		h.reactionTTL = ttl
	}
}

func NewHub(sessions *usecase_session.Service, clock expiry.Clock, opts ...HubOption) *Hub {
	h := &Hub{
		sessions:     sessions,
		clock:        clock,
		logger:       slog.Default(),
		clients:      make(map[*Client]bool),
		rooms:        make(map[model.RoomID]map[*Client]bool),
		watchers:     make(map[model.RoomID]*watcher),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		updates:      make(chan stateUpdate),
		pollInterval: DefaultPollInterval,
		reactionTTL:  usecase_session.ReactionTTL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case update := <-h.updates:
			h.broadcastState(update.roomID, update.room)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, exists := h.rooms[client.roomID]; !exists {
		h.rooms[client.roomID] = make(map[*Client]bool)
		h.watchers[client.roomID] = h.startWatcher(client.roomID)
	}
	h.rooms[client.roomID][client] = true

	h.logger.Info("client registered",
		"room", client.roomID,
		"user_id", client.session.UserID())
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if roomClients, exists := h.rooms[client.roomID]; exists {
		delete(roomClients, client)
		if len(roomClients) == 0 {
			delete(h.rooms, client.roomID)
			if w, ok := h.watchers[client.roomID]; ok {
				delete(h.watchers, client.roomID)
				w.halt()
			}
		}
	}

	h.logger.Info("client unregistered",
		"room", client.roomID,
		"user_id", client.session.UserID())
}

// broadcastState renders the update per viewer: a participant sees only
// their own card face up until the room is revealed.
func (h *Hub) broadcastState(roomID model.RoomID, room model.Room) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.clock.Now()
	for client := range h.rooms[roomID] {
		event := Event{
			Type:    EventRoomUpdate,
			Payload: BuildRoomState(room, now, client.session.UserID()),
		}
		select {
		case client.send <- event:
		default:
			close(client.send)
			delete(h.rooms[roomID], client)
			delete(h.clients, client)
		}
	}
}

// ParticipantsCount answers from the watcher's mirror so the HTTP
// surface can describe a room without joining it.
func (h *Hub) ParticipantsCount(roomID model.RoomID) (int, bool) {
	h.mu.RLock()
	w, ok := h.watchers[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return len(w.current().Users), true
}

func (h *Hub) sendError(client *Client, action string, err error) {
	event := Event{
		Type: EventError,
		Payload: map[string]any{
			"action":  action,
			"message": err.Error(),
		},
	}
	select {
	case client.send <- event:
	default:
	}
}

func (h *Hub) revealRoom(roomID model.RoomID) {
	if err := h.sessions.RevealRoom(context.Background(), roomID); err != nil {
		h.logger.Error("auto-reveal failed", "room", roomID, "error", err)
	}
}
