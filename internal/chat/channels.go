package chat

// Fixed channels. Names are the wire contract with the server.
const (
	ChannelHandshake  = "/meta/handshake"
	ChannelUsers      = "/users"
	ChannelRooms      = "/rooms"
	ChannelRoomJoin   = "/service/room/join"
	ChannelRoomLeave  = "/service/room/leave"
	ChannelRoomEdit   = "/service/room/edit"
	ChannelRoomCreate = "/service/room/create"
	ChannelChat       = "/service/chat"
	ChannelStatus     = "/service/status"
	ChannelInit       = "/service/init"
)

const (
	membersPrefix = "/members/"
	chatPrefix    = "/chat/"
)

// MembersChannel is the per-room roster channel.
func MembersChannel(roomID string) string {
	return membersPrefix + roomID
}

// ChatChannel is the per-room chat channel.
func ChatChannel(roomID string) string {
	return chatPrefix + roomID
}
