package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte
}

// UIMessage defines the structure for incoming JSON messages from the UI.
type UIMessage struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// readPump pumps messages from the websocket connection to the hub.
// A broken connection is detected by a write failure in the writePump.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	// Handle incoming control messages from the client.
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		var msg UIMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("error unmarshalling message: %v", err)
			continue
		}

		// Route the message based on its type. Sends are non-blocking:
		// a full channel drops the command rather than stalling the pump.
		switch msg.Type {
		case "set_running":
			c.trySendBool(c.hub.SetRunning, msg.Value != 0, msg.Type)
		case "toggle_therapy":
			c.trySendSignal(c.hub.ToggleTherapy, msg.Type)
		case "flush":
			c.trySendSignal(c.hub.FlushParticles, msg.Type)
		case "boost":
			select {
			case c.hub.BoostParticles <- int(msg.Value):
			default:
				log.Printf("%s channel is full, dropping message.", msg.Type)
			}
		case "introduce_pathogen":
			c.trySendSignal(c.hub.IntroducePathogen, msg.Type)
		case "reset":
			c.trySendSignal(c.hub.ResetWorld, msg.Type)
		case "export_chart":
			c.trySendSignal(c.hub.ExportChart, msg.Type)
		case "set_recording":
			c.trySendBool(c.hub.SetRecording, msg.Value != 0, msg.Type)
		default:
			log.Printf("Unknown message type received: %s", msg.Type)
		}
	}
}

func (c *Client) trySendSignal(ch chan struct{}, name string) {
	select {
	case ch <- struct{}{}:
	default:
		log.Printf("%s channel is full, dropping message.", name)
	}
}

func (c *Client) trySendBool(ch chan bool, value bool, name string) {
	select {
	case ch <- value:
	default:
		log.Printf("%s channel is full, dropping message.", name)
	}
}

// writePump pumps messages from the hub to the websocket connection. This
// is the only place that writes to the connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		// Set a deadline on the write. If the write blocks for too long,
		// we assume the connection is dead.
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("write error, closing connection: %v", err)
			return
		}
	}
	// The hub closed the channel.
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub maintains the set of active clients, broadcasts frames and stats to
// them, and carries the intervention commands from the UI to the
// simulation loop. Each command gets its own typed channel so the loop can
// apply it atomically between ticks.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	SetRunning        chan bool
	ToggleTherapy     chan struct{}
	FlushParticles    chan struct{}
	BoostParticles    chan int
	IntroducePathogen chan struct{}
	ResetWorld        chan struct{}
	ExportChart       chan struct{}
	SetRecording      chan bool
}

// NewHub creates a new Hub object.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),

		SetRunning:        make(chan bool, 8),
		ToggleTherapy:     make(chan struct{}, 8),
		FlushParticles:    make(chan struct{}, 8),
		BoostParticles:    make(chan int, 8),
		IntroducePathogen: make(chan struct{}, 8),
		ResetWorld:        make(chan struct{}, 8),
		ExportChart:       make(chan struct{}, 8),
		SetRecording:      make(chan bool, 8),
	}
}

// Run starts the Hub's message-handling loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// The client's send buffer is full. Drop the frame
					// instead of disconnecting; a truly dead connection
					// is caught by the writePump's deadline.
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket connections and creates a Client.
func handleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	client.hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// serveIndex serves the main HTML file.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat("index.html"); os.IsNotExist(err) {
		http.Error(w, "index.html not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, "index.html")
}

// StartServer initializes HTTP routes and starts the web server.
func StartServer(hub *Hub, addr string) {
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(hub, w, r)
	})
	http.HandleFunc("/", serveIndex)

	log.Printf("Starting web server on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("ListenAndServe Error: ", err)
	}
}
