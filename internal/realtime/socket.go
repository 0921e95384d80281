package realtime

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/logger"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

const presenceRoom = "presence"

// Minimum interval between typing relays per sender.
const typingThrottle = 3 * time.Second

// SocketGateway is the Socket.IO implementation of Gateway. Connections
// authenticate with the same JWT as the HTTP API, passed as the handshake
// query parameter `token` (fallback `auth_token`), then join their personal
// room plus a shared presence room.
type SocketGateway struct {
	server   *socketio.Server
	presence *presence

	typingMu   sync.Mutex
	lastTyping map[string]time.Time
}

func NewSocketGateway() *SocketGateway {
	g := &SocketGateway{
		presence:   newPresence(),
		lastTyping: make(map[string]time.Time),
	}

	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", g.onConnect)
	server.OnDisconnect("/", g.onDisconnect)
	server.OnError("/", func(s socketio.Conn, err error) {
		logger.Warn().Err(err).Msg("socket error")
	})

	server.OnEvent("/", "typing", g.onTyping)
	server.OnEvent("/", "get_online_users", func(s socketio.Conn, msg string) {
		s.Emit(EventOnlineUsers, g.presence.users())
	})

	g.server = server
	return g
}

func (g *SocketGateway) onConnect(s socketio.Conn) error {
	s.SetContext("")

	// Token from the query string is the only handshake slot every
	// Socket.IO client can populate reliably.
	u := s.URL()
	token := u.Query().Get("token")
	if token == "" {
		token = u.Query().Get("auth_token")
	}
	if token == "" {
		logger.Debug().Str("conn", s.ID()).Msg("socket rejected: no token")
		return errors.New("authentication required")
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		logger.Debug().Str("conn", s.ID()).Msg("socket rejected: invalid token")
		return errors.New("invalid token")
	}
	if database.IsTokenBlacklisted(claims.JTI()) {
		logger.Debug().Str("conn", s.ID()).Msg("socket rejected: revoked token")
		return errors.New("token revoked")
	}

	userID := claims.UserID
	s.SetContext(userID)

	s.Join(RoomFor(userID))
	s.Join(presenceRoom)
	g.Join(userID, s.ID())

	// Let the fresh connection know who else is around.
	s.Emit(EventOnlineUsers, g.presence.users())

	logger.Debug().Str("user", userID).Str("conn", s.ID()).Msg("socket connected")
	return nil
}

func (g *SocketGateway) onDisconnect(s socketio.Conn, reason string) {
	userID, _ := s.Context().(string)
	if userID == "" {
		return
	}
	g.Leave(userID, s.ID())
	logger.Debug().Str("user", userID).Str("reason", reason).Msg("socket disconnected")
}

// onTyping relays a typing indicator to the recipient. Indicators are
// throttled per sender and never persisted.
func (g *SocketGateway) onTyping(s socketio.Conn, data map[string]interface{}) {
	senderID, _ := s.Context().(string)
	recipientID, _ := data["recipientId"].(string)
	if senderID == "" || recipientID == "" {
		return
	}

	now := time.Now()
	g.typingMu.Lock()
	if last, seen := g.lastTyping[senderID]; seen && now.Sub(last) < typingThrottle {
		g.typingMu.Unlock()
		return
	}
	g.lastTyping[senderID] = now
	g.typingMu.Unlock()

	g.Emit(recipientID, EventTyping, map[string]interface{}{
		"userId": senderID,
		// Clients drop the indicator themselves once this passes.
		"expiresAt": now.Add(typingThrottle + time.Second).Unix(),
	})
}

// Join records an established connection in the presence view. The room
// membership itself is handled by the connect handler; a user's first
// connection announces them online.
func (g *SocketGateway) Join(userID, connectionID string) {
	if first := g.presence.add(userID, connectionID); first {
		g.broadcastPresence(userID, true)
	}
}

// Leave drops a connection from the presence view; removing the last one
// announces the user offline.
func (g *SocketGateway) Leave(userID, connectionID string) {
	if last := g.presence.remove(userID, connectionID); last {
		g.broadcastPresence(userID, false)
	}
}

// Emit broadcasts into the user's personal room. An empty room makes this
// a no-op inside the Socket.IO server.
func (g *SocketGateway) Emit(userID, event string, payload interface{}) {
	if g.server == nil {
		return
	}
	g.server.BroadcastToRoom("/", RoomFor(userID), event, payload)
}

func (g *SocketGateway) broadcastPresence(userID string, online bool) {
	if g.server == nil {
		return
	}
	g.server.BroadcastToRoom("/", presenceRoom, EventPresence, map[string]interface{}{
		"userId":   userID,
		"isOnline": online,
	})
}

// IsOnline reports whether the user has at least one live connection.
func (g *SocketGateway) IsOnline(userID string) bool {
	return g.presence.online(userID)
}

// OnlineUsers returns the ids of every connected user.
func (g *SocketGateway) OnlineUsers() []string {
	return g.presence.users()
}

// Serve runs the engine.io loop; callers start it on its own goroutine.
func (g *SocketGateway) Serve() error {
	return g.server.Serve()
}

func (g *SocketGateway) Close() error {
	return g.server.Close()
}

// Handler mounts the Socket.IO endpoint on a gin engine.
func (g *SocketGateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.server.ServeHTTP(c.Writer, c.Request)
	}
}

var _ Gateway = (*SocketGateway)(nil)
