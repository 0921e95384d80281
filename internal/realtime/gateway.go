// Package realtime owns the push channel: the mapping from a user id to
// zero or more live connections, and the fan-out of domain events onto
// them. Delivery is best-effort by contract; the persisted row is always
// the source of truth and a push is only a latency optimization for
// clients that happen to be connected.
package realtime

// Events fanned out over the per-user rooms.
const (
	EventNewMessage     = "new_message"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventMessagesRead   = "messages_read"
	EventNotification   = "notification"
	EventTyping         = "user_typing"
	EventPresence       = "presence_update"
	EventOnlineUsers    = "online_users"
)

// RoomFor names the personal broadcast room every connection of a user
// joins on connect.
func RoomFor(userID string) string {
	return "user:" + userID
}

// Gateway delivers events to a user's connected clients.
type Gateway interface {
	// Join registers a live connection into the user's room.
	Join(userID, connectionID string)
	// Leave deregisters a connection; the last leave marks the user offline.
	Leave(userID, connectionID string)
	// Emit pushes an event to every live connection of the user. With no
	// connections it is a silent no-op: no queueing, no retry.
	Emit(userID, event string, payload interface{})
}

// NopGateway discards every call. It backs deployments that run with the
// realtime transport disabled and is the default collaborator in tests.
type NopGateway struct{}

func (NopGateway) Join(userID, connectionID string) {}

func (NopGateway) Leave(userID, connectionID string) {}

func (NopGateway) Emit(userID, event string, payload interface{}) {}

var _ Gateway = NopGateway{}
