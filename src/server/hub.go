package server

import (
	"encoding/json"
	"net/http"

	"gateway-stream/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// subscription replaces the stream filter of a client.
type subscription struct {
	client  *Client
	streams []string
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub owns the client set. It exits once the server stops.
func (s *RelayServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Add(1)
			s.sendSnapshot(client)

		case client := <-s.unregister:
			s.drop(client)

		case sub := <-s.subscribe:
			if _, ok := s.clients[sub.client]; !ok {
				continue
			}
			sub.client.setStreams(sub.streams)
			s.sendSnapshot(sub.client)

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			s.latest[message.Stream] = message
			s.stateMutex.Unlock()

			for client := range s.clients {
				if !client.wants(message.Stream) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to keep the hub moving
					s.Logger.Warning("Dropping slow client %s", client.id)
					s.drop(client)
				}
			}

		case <-s.done:
			for client := range s.clients {
				s.drop(client)
			}
			return
		}
	}
}

func (s *RelayServer) drop(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.connections.Add(-1)
	}
}

// sendSnapshot queues the latest value of every stream the client wants.
func (s *RelayServer) sendSnapshot(client *Client) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	for stream, m := range s.latest {
		if !client.wants(stream) {
			continue
		}
		initial := *m
		initial.Type = models.RelayInitial
		select {
		case client.send <- &initial:
		default:
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues payload for every client of its stream. Payloads other
// than relay messages are dropped.
func (s *RelayServer) Broadcast(payload interface{}) {
	message, ok := asRelayMessage(payload)
	if !ok {
		s.Logger.Info("Broadcast expected a relay message, got %T", payload)
		return
	}
	message.Type = models.RelayUpdate

	select {
	case s.broadcast <- message:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// UpdateState records payload as the latest value of its stream, for clients
// that connect later.
func (s *RelayServer) UpdateState(payload interface{}) {
	message, ok := asRelayMessage(payload)
	if !ok {
		s.Logger.Info("UpdateState expected a relay message, got %T", payload)
		return
	}
	message.Type = models.RelayUpdate

	s.stateMutex.Lock()
	s.latest[message.Stream] = message
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *RelayServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	s.Logger.Debug("Client %s connected from %s", client.id, c.ClientIP())

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *RelayServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	select {
	case s.subscribe <- subscription{client: client, streams: cmd.Streams}:
	case <-s.done:
	}
}
