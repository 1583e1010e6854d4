package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gateway-go/config"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamEvent adalah pesan yang dikirim ke pelanggan dashboard.
type StreamEvent struct {
	Event   string      `json:"event"` // "summary" atau "notice"
	GroupID string      `json:"groupId"`
	Payload interface{} `json:"payload,omitempty"`
}

// Subscriber menerima event satu grup melalui channel C.
type Subscriber struct {
	C       chan []byte
	groupID string
}

// StreamHub menyalurkan hasil refresh dashboard ke tampilan yang
// sedang terbuka, dikelompokkan per topik group id.
type StreamHub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]bool
}

func NewStreamHub() *StreamHub {
	return &StreamHub{topics: make(map[string]map[*Subscriber]bool)}
}

// Subscribe mendaftarkan pelanggan baru untuk satu grup.
func (h *StreamHub) Subscribe(groupID string) *Subscriber {
	sub := &Subscriber{C: make(chan []byte, 8), groupID: groupID}
	h.mu.Lock()
	if h.topics[groupID] == nil {
		h.topics[groupID] = make(map[*Subscriber]bool)
	}
	h.topics[groupID][sub] = true
	h.mu.Unlock()
	return sub
}

// Unsubscribe melepaskan pelanggan; channel-nya ditutup.
func (h *StreamHub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[sub.groupID]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.C)
			if len(subs) == 0 {
				delete(h.topics, sub.groupID)
			}
		}
	}
}

// Broadcast mengirim event ke semua pelanggan grup. Pelanggan yang
// lambat dilewati, tidak pernah memblokir pemanggil.
func (h *StreamHub) Broadcast(groupID, event string, payload interface{}) {
	data, err := json.Marshal(StreamEvent{Event: event, GroupID: groupID, Payload: payload})
	if err != nil {
		config.Log.Error("Gagal menyusun event stream: ", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[groupID] {
		select {
		case sub.C <- data:
		default:
		}
	}
}

// ServeWS meng-upgrade koneksi HTTP menjadi websocket dan memompa
// event grup ke klien sampai koneksi ditutup.
func (h *StreamHub) ServeWS(w http.ResponseWriter, r *http.Request, groupID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		config.Log.Error("Gagal upgrade websocket: ", err)
		return
	}

	sub := h.Subscribe(groupID)

	// Reader: hanya untuk mendeteksi penutupan dan pong.
	go func() {
		defer h.Unsubscribe(sub)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Writer
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			conn.Close()
		}()
		for {
			select {
			case msg, ok := <-sub.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
