package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"soundreview/model"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialFeed(t *testing.T, hub *Hub, trackID int64) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(trackID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	conn := dialFeed(t, hub, 1)

	sent := Event{
		Type:    "comment",
		TrackID: 1,
		Comment: &model.Comment{ID: 7, TrackID: 1, Timestamp: 12.5, Username: "alice", Content: "hi"},
	}
	// The subscriber attaches from the server handler goroutine; give it a
	// moment before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.Broadcast(sent)
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var got Event
		if err := conn.ReadJSON(&got); err == nil {
			if got.Type != "comment" || got.Comment == nil || got.Comment.ID != 7 {
				t.Fatalf("got event %+v, want the broadcast comment", got)
			}
			return
		}
	}
	t.Fatal("no event received before deadline")
}

func TestBroadcastDuringDisconnect(t *testing.T) {
	hub := NewHub()

	// Hammer the hub from many writers while subscribers attach and drop.
	// A send must never race the detach path, even when full buffers push
	// broadcasters onto the detach branch themselves.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Broadcast(Event{Type: "comment", TrackID: 1})
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		conn := dialFeed(t, hub, 1)
		conn.Close()
	}

	close(stop)
	wg.Wait()
}

func TestBroadcastIsScopedToTrack(t *testing.T) {
	hub := NewHub()
	conn := dialFeed(t, hub, 1)

	// Wait for the subscriber to attach, then broadcast to another track.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		attached := len(hub.subs[1]) > 0
		hub.mu.RUnlock()
		if attached {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(Event{Type: "comment", TrackID: 2})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var got Event
	if err := conn.ReadJSON(&got); err == nil {
		t.Fatalf("received event %+v for another track", got)
	}
}
