package chat

// EventKind is a change notification the session emits to the view layer.
type EventKind int

const (
	// EventSessionState notifies about a session state transition.
	EventSessionState EventKind = iota
	// EventLoginFailed notifies that the handshake was rejected.
	EventLoginFailed
	// EventRooms delivers the full current room set.
	EventRooms
	// EventRoomJoined confirms that a room was joined.
	EventRoomJoined
	// EventRoomLeft confirms that a room was left.
	EventRoomLeft
	// EventRoomEdited confirms a room rename.
	EventRoomEdited
	// EventRoomCreated acknowledges a room creation request.
	EventRoomCreated
	// EventRoster delivers the joined room's member list.
	EventRoster
	// EventChatMessage delivers one live chat line.
	EventChatMessage
	// EventChatHistory delivers the chat log after a history snapshot.
	EventChatHistory
	// EventUserCount delivers the server-wide user count.
	EventUserCount
	// EventStatus delivers a free-text status line.
	EventStatus
)

// Event describes one state change to the view layer. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind    EventKind
	State   State
	User    string
	Rooms   []Room
	Room    *Room
	Members []string
	Message *Message
	History []Message
	Count   int
	Status  string
}
