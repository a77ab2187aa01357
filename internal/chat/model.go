package chat

// Room is one chat room. Identity is ID; Name may be edited server-side.
type Room struct {
	ID   string
	Name string
}

// Message is one chat line. Immutable once appended; order is arrival order
// on the room's chat channel.
type Message struct {
	Author string
	Text   string
}
