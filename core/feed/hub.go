// Package feed pushes comment events to open widgets over websockets so a
// listener sees new markers without polling. The feed is read-only; all
// writes still go through the HTTP API.
package feed

import (
	"sync"

	"soundreview/logger"
	"soundreview/model"

	"github.com/gorilla/websocket"
)

// Event is one comment change broadcast to a track's subscribers.
type Event struct {
	Type      string         `json:"type"` // comment, reply, close
	TrackID   int64          `json:"track_id"`
	CommentID int64          `json:"comment_id,omitempty"` // the closed root on close events
	Comment   *model.Comment `json:"comment,omitempty"`
}

// Hub fans comment events out to per-track subscriber sets.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*subscriber]struct{}
}

// send is never closed; detach signals shutdown by closing done, so a
// broadcast racing a disconnect cannot send on a closed channel.
type subscriber struct {
	conn *websocket.Conn
	send chan Event
	done chan struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*subscriber]struct{})}
}

// Subscribe attaches a websocket connection to a track's feed and services
// it until the connection drops. It blocks; callers run it from the upgrade
// handler's goroutine.
func (h *Hub) Subscribe(trackID int64, conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan Event, 16),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[trackID] == nil {
		h.subs[trackID] = make(map[*subscriber]struct{})
	}
	h.subs[trackID][sub] = struct{}{}
	h.mu.Unlock()

	logger.Debug("Feed subscriber attached", logger.Int64("trackId", trackID))

	// Drain client frames so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.detach(trackID, sub)
				return
			}
		}
	}()

	for {
		select {
		case event := <-sub.send:
			if err := conn.WriteJSON(event); err != nil {
				h.detach(trackID, sub)
				return
			}
		case <-sub.done:
			return
		}
	}
}

// Broadcast sends an event to every subscriber of the track. Slow
// subscribers are dropped rather than blocking the writer.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs[event.TrackID]))
	for sub := range h.subs[event.TrackID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- event:
		case <-sub.done:
		default:
			h.detach(event.TrackID, sub)
		}
	}
}

// detach removes a subscriber and closes its done channel exactly once.
func (h *Hub) detach(trackID int64, sub *subscriber) {
	h.mu.Lock()
	set := h.subs[trackID]
	if set != nil {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.done)
		}
		if len(set) == 0 {
			delete(h.subs, trackID)
		}
	}
	h.mu.Unlock()
	sub.conn.Close()
}
