package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/localserve/notify/pkg/jwt"
	"github.com/localserve/notify/pkg/logger"
	"github.com/localserve/notify/pkg/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// clientFrame is an inbound message from the browser. The only meaningful
// event is "join", kept for compatibility with clients that announce their
// user id after connecting; membership is already established during the
// handshake, so a join naming anyone but the authenticated user is ignored.
type clientFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type wsServer struct {
	jwt *jwt.Service
	hub *presence.Hub
	log *slog.Logger

	upgrader websocket.Upgrader
}

// WSHandler returns the realtime endpoint handler. The handshake carries the
// bearer token in the "token" query parameter because browsers cannot set
// headers on WebSocket upgrades. The connection is joined to the
// authenticated user's broadcast group for its whole lifetime.
func WSHandler(jwtService *jwt.Service, hub *presence.Hub, log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	s := &wsServer{
		jwt: jwtService,
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin browsers are the expected clients; the token is
			// the access control, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	return s.serve
}

func (s *wsServer) serve(w http.ResponseWriter, r *http.Request) {
	token, err := jwt.QueryTokenExtractor("token")(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := s.jwt.VerifySubject(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	conn, err := s.hub.Join(userID)
	if err != nil {
		s.log.WarnContext(r.Context(), "Failed to join presence hub", logger.UserID(userID), logger.Error(err))
		ws.Close()
		return
	}

	s.log.InfoContext(r.Context(), "Realtime connection established",
		logger.UserID(userID),
		logger.ConnectionID(conn.ID()),
	)

	go s.writePump(ws, conn)
	s.readPump(ws, conn)
}

// readPump consumes inbound frames until the peer disconnects. Leaving the
// hub here also stops the write pump via the closed events channel.
func (s *wsServer) readPump(ws *websocket.Conn, conn *presence.Conn) {
	defer func() {
		conn.Close()
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}

		if frame.Event == "join" {
			var claimed string
			if err := json.Unmarshal(frame.Payload, &claimed); err != nil {
				continue
			}
			if claimed != conn.UserID() {
				s.log.Warn("Ignoring join for mismatched user",
					logger.UserID(conn.UserID()),
					logger.ConnectionID(conn.ID()),
					slog.String("claimed_user_id", claimed),
				)
			}
		}
	}
}

// writePump forwards hub events to the peer as JSON frames and keeps the
// connection alive with periodic pings.
func (s *wsServer) writePump(ws *websocket.Conn, conn *presence.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case ev, ok := <-conn.Events():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
