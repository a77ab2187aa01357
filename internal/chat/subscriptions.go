package chat

import (
	"github.com/rs/zerolog"

	"github.com/sbordet/oort-chat-demo/internal/proto"
	"github.com/sbordet/oort-chat-demo/internal/transport"
)

// SubscriptionManager owns the two per-room subscriptions (members channel
// and chat channel) and their lifecycle. The handles are created and
// destroyed together, never individually: either both are live or neither is.
type SubscriptionManager struct {
	tr  transport.Transport
	log *zerolog.Logger

	members *transport.Subscription
	chat    *transport.Subscription
	roomID  string
}

// NewSubscriptionManager builds a manager bound to a transport.
func NewSubscriptionManager(tr transport.Transport, logger *zerolog.Logger) *SubscriptionManager {
	return &SubscriptionManager{tr: tr, log: logger}
}

// EnterRoom leaves any currently joined room, subscribes the new room's
// members and chat channels and publishes the join intent, all as one batch
// so the server never observes a transient joined-two-rooms or joined-none
// state.
func (m *SubscriptionManager) EnterRoom(room Room) {
	m.tr.Batch(func() {
		m.exit()
		m.log.Info().Str("room", room.Name).Msg("joining room")
		m.members = m.tr.Subscribe(MembersChannel(room.ID))
		m.chat = m.tr.Subscribe(ChatChannel(room.ID))
		m.tr.Publish(ChannelRoomJoin, proto.RoomJoinRequest{RoomID: room.ID})
		m.roomID = room.ID
	})
}

// ExitRoom leaves the joined room: publishes the leave intent and drops both
// subscriptions. With no room joined it does nothing, silently.
func (m *SubscriptionManager) ExitRoom() {
	if m.roomID == "" {
		return
	}
	m.tr.Batch(func() {
		m.exit()
	})
}

func (m *SubscriptionManager) exit() {
	if m.roomID == "" {
		return
	}
	m.log.Info().Str("roomId", m.roomID).Msg("leaving room")
	m.tr.Publish(ChannelRoomLeave, proto.RoomLeaveRequest{RoomID: m.roomID})
	m.tr.Unsubscribe(m.members)
	m.tr.Unsubscribe(m.chat)
	m.members = nil
	m.chat = nil
	m.roomID = ""
}

// Resubscribe replays both per-room subscriptions after a transport
// reconnect. Uses the transport's resubscribe primitive, not a fresh
// subscribe, so no new join notification is produced server-side. With no
// live subscriptions it does nothing.
func (m *SubscriptionManager) Resubscribe() {
	if m.members != nil {
		m.members = m.tr.Resubscribe(m.members)
	}
	if m.chat != nil {
		m.chat = m.tr.Resubscribe(m.chat)
	}
}

// Reset drops the handles without any transport traffic. Used on logout,
// where the disconnect already kills every subscription server-side.
func (m *SubscriptionManager) Reset() {
	m.members = nil
	m.chat = nil
	m.roomID = ""
}

// Joined returns the id of the room whose subscriptions are live.
func (m *SubscriptionManager) Joined() (string, bool) {
	return m.roomID, m.roomID != ""
}
