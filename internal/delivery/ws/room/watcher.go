package ws_room

import (
	"context"
	"sync"
	"time"

	usecase_results "github.com/avelichko/planpoker/internal/usecase/results"

	"github.com/avelichko/planpoker/internal/model"
	"github.com/avelichko/planpoker/internal/rtstore"
)

// watcher is the hub's session-less observer of one active room. It
// relays snapshots to the room's clients, triggers auto-reveal when the
// last vote lands, polls the countdown deadline, and garbage-collects
// reactions whose sender never cleaned up.
type watcher struct {
	hub    *Hub
	roomID model.RoomID
	sub    *rtstore.Subscription
	stop   chan struct{}

	mu   sync.Mutex
	room model.Room
	raw  any
}

func (h *Hub) startWatcher(roomID model.RoomID) *watcher {
	w := &watcher{
		hub:    h,
		roomID: roomID,
		sub:    h.sessions.SubscribeRoom(roomID),
		stop:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *watcher) run() {
	ticker := time.NewTicker(w.hub.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-w.sub.C:
			if !ok {
				return
			}
			room := model.RoomFromTree(snapshot)
			w.mu.Lock()
			w.room = room
			w.raw = snapshot
			w.mu.Unlock()

			w.observe(room)
			w.hub.updates <- stateUpdate{roomID: w.roomID, room: room}

		case <-ticker.C:
			w.poll()

		case <-w.stop:
			w.teardown()
			return
		}
	}
}

// observe reacts to a state transition. Both triggers resolve to the
// same idempotent reveal, so racing observers across rooms or processes
// stay safe.
func (w *watcher) observe(room model.Room) {
	if usecase_results.ShouldAutoReveal(room) {
		w.hub.revealRoom(w.roomID)
	}
}

// poll covers what no store event announces: the countdown deadline
// passing, and reactions outliving their TTL because their sender died.
func (w *watcher) poll() {
	room := w.current()
	now := w.hub.clock.Now()

	if !room.Revealed && usecase_results.TimerExpired(room, now) {
		w.hub.revealRoom(w.roomID)
	}

	for id, reaction := range room.Reactions {
		if now.Sub(time.UnixMilli(reaction.Timestamp)) >= w.hub.reactionTTL {
			if err := w.hub.sessions.PurgeReaction(context.Background(), w.roomID, id); err != nil {
				w.hub.logger.Error("reaction purge failed", "room", w.roomID, "reaction", id, "error", err)
			}
		}
	}
}

// teardown runs when the last client left the room. The store prunes
// the users subtree on its own; room-level fields left behind by an
// emptied room are deleted here.
func (w *watcher) teardown() {
	w.hub.sessions.UnsubscribeRoom(w.sub)

	w.mu.Lock()
	empty := w.raw != nil && len(w.room.Users) == 0
	w.mu.Unlock()

	if empty {
		if err := w.hub.sessions.DeleteRoom(context.Background(), w.roomID); err != nil {
			w.hub.logger.Error("room cleanup failed", "room", w.roomID, "error", err)
		}
	}
}

func (w *watcher) current() model.Room {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.room
}

func (w *watcher) halt() {
	close(w.stop)
}
