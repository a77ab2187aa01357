package proto

// Roster delta actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// HandshakeExt is the credential extension sent with the handshake.
type HandshakeExt struct {
	Auth AuthData `json:"auth"`
}

// AuthData identifies the user to the server. Token is set only when the
// client is configured with a signing secret.
type AuthData struct {
	User  string `json:"user"`
	Token string `json:"token,omitempty"`
}

// HandshakeReply is the server's answer to a handshake.
type HandshakeReply struct {
	Successful bool `json:"successful"`
}

// RoomInfo describes one room.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserInfo identifies one user.
type UserInfo struct {
	ID string `json:"id"`
}

// ChatInfo is one chat line as broadcast on a room's chat channel.
type ChatInfo struct {
	User UserInfo `json:"user"`
	Text string   `json:"text"`
}

// ChatHistoryInfo seeds the chat log right after a room join.
type ChatHistoryInfo struct {
	Chats []ChatInfo `json:"chats"`
}

// MembersData is a roster delta on a room's members channel.
type MembersData struct {
	Action  string     `json:"action"`
	Members []UserInfo `json:"members"`
}

// RoomJoinRequest asks the server to join a room.
type RoomJoinRequest struct {
	RoomID string `json:"roomId"`
}

// RoomLeaveRequest asks the server to leave a room.
type RoomLeaveRequest struct {
	RoomID string `json:"roomId"`
}

// RoomEditRequest asks the server to rename a room.
type RoomEditRequest struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

// RoomCreateRequest asks the server to create a room.
type RoomCreateRequest struct {
	RoomName string `json:"roomName"`
}

// ChatSendRequest publishes a chat line. The server echoes it back on the
// room's chat channel; the local log is appended only on that echo.
type ChatSendRequest struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// InitRequest is published once after a successful handshake.
type InitRequest struct{}
