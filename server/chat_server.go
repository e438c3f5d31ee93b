package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ChatServer holds the HTTP-facing handlers: the websocket upgrade
// path and the room stats endpoint.
type ChatServer struct {
	hub      *Hub
	verifier *TokenVerifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewChatServer(hub *Hub, verifier *TokenVerifier, allowedOrigin string, logger zerolog.Logger) *ChatServer {
	return &ChatServer{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

// Connect upgrades the request, resolves the caller's identity from
// the optional bearer credential, and starts the connection's pumps.
func (s *ChatServer) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	identity, guest := s.verifier.Resolve(tokenFromRequest(r))
	c := NewClient(identity, guest, conn, s.hub)
	s.hub.Register(c)

	go c.readPump()
	go c.writePump()
}

// Rooms writes the current room membership counts.
func (s *ChatServer) Rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.RoomCounts())
}

func writeJSON(w http.ResponseWriter, statusCode int, obj any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err = w.Write(b)
	return err
}
