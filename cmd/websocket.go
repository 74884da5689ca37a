package main

import (
	"log"
	"net/http"
	"time"

	"camioBack/internal/models"

	"github.com/gorilla/websocket"
)

const (
	readLimit          = 1 << 20
	readDeadline       = 120 * time.Second
	writeDeadline      = 5 * time.Second
	pingInterval       = 15 * time.Second
	firstHelloDeadline = 30 * time.Second
)

type directMsg struct {
	userID int
	event  models.RequestEvent
}

type unreg struct {
	userID int
	conn   *websocket.Conn
}

type wsClient struct {
	ID     int
	Socket *websocket.Conn
}

type WebSocketManager struct {
	clients    map[int]*websocket.Conn
	direct     chan directMsg
	register   chan wsClient
	unregister chan unreg
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[int]*websocket.Conn),
		direct:     make(chan directMsg, 64),
		register:   make(chan wsClient),
		unregister: make(chan unreg),
	}
}

// PublishRequestEvent hands the event to the hub. Events for offline users or
// a saturated hub are dropped; the websocket stream is best effort.
func (ws *WebSocketManager) PublishRequestEvent(userID int, event models.RequestEvent) {
	select {
	case ws.direct <- directMsg{userID: userID, event: event}:
	default:
		log.Printf("ws hub saturated, dropping %s for user %d", event.Type, userID)
	}
}

// Run owns the clients map; all connection state changes go through here.
func (ws *WebSocketManager) Run() {
	for {
		select {
		case client := <-ws.register:
			if old, ok := ws.clients[client.ID]; ok && old != nil && old != client.Socket {
				_ = old.Close()
			}
			ws.clients[client.ID] = client.Socket
			log.Printf("WS register user=%d", client.ID)

		case u := <-ws.unregister:
			if cur, ok := ws.clients[u.userID]; ok && cur == u.conn {
				_ = cur.Close()
				delete(ws.clients, u.userID)
				log.Printf("WS unregister user=%d", u.userID)
			}

		case dm := <-ws.direct:
			if conn, ok := ws.clients[dm.userID]; ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(dm.event); err != nil {
					log.Printf("direct send error to=%d: %v", dm.userID, err)
					_ = conn.Close()
					delete(ws.clients, dm.userID)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// WebSocketHandler upgrades the connection. The first frame must carry
// { "userId": <int> }; afterwards the server only pushes request events and
// answers pings.
func (app *application) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(firstHelloDeadline))

	var hello struct {
		UserID int `json:"userId"`
	}
	if err := conn.ReadJSON(&hello); err != nil || hello.UserID == 0 {
		log.Printf("WS hello failed: %v", err)
		_ = conn.Close()
		return
	}

	app.wsManager.register <- wsClient{ID: hello.UserID, Socket: conn}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for range ticker.C {
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				app.wsManager.unregister <- unreg{userID: hello.UserID, conn: conn}
				return
			}
		}
	}()

	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				app.wsManager.unregister <- unreg{userID: hello.UserID, conn: conn}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		}
	}()
}
