package chat

// RoomDirectory maintains the known room set and which room, if any, is
// currently joined. The server is authoritative: the room list arrives as a
// full broadcast and the joined room is tracked from join/leave/edit
// notifications, which may arrive before or after the list naming the same
// room.
type RoomDirectory struct {
	rooms    []Room
	byID     map[string]int
	current  Room
	joined   bool
	creating bool
}

// NewRoomDirectory returns an empty directory.
func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{byID: make(map[string]int)}
}

// ReplaceAll replaces the entire known room set with a broadcast. The
// broadcast also carries name edits, so the joined room's cached name is
// refreshed from it; if the joined room is gone from the list, the join is
// dropped.
func (d *RoomDirectory) ReplaceAll(rooms []Room) {
	d.rooms = make([]Room, len(rooms))
	copy(d.rooms, rooms)
	d.byID = make(map[string]int, len(rooms))
	for i, room := range d.rooms {
		d.byID[room.ID] = i
	}

	if !d.joined {
		return
	}
	if i, ok := d.byID[d.current.ID]; ok {
		d.current.Name = d.rooms[i].Name
	} else {
		d.current = Room{}
		d.joined = false
	}
}

// ApplyJoined records the server's confirmation that a room was joined.
func (d *RoomDirectory) ApplyJoined(room Room) {
	d.current = room
	d.joined = true
}

// ApplyLeft clears the joined room if the notification names it. A leave for
// some other room only concerns its selection flag, never the current join.
// Returns true when the current join was cleared.
func (d *RoomDirectory) ApplyLeft(room Room) bool {
	if !d.joined || d.current.ID != room.ID {
		return false
	}
	d.current = Room{}
	d.joined = false
	return true
}

// ApplyEdited renames a room. Identity and the current join are untouched.
func (d *RoomDirectory) ApplyEdited(room Room) {
	if i, ok := d.byID[room.ID]; ok {
		d.rooms[i].Name = room.Name
	}
	if d.joined && d.current.ID == room.ID {
		d.current.Name = room.Name
	}
}

// ApplyCreated acknowledges a creation request. The created room itself is
// not recorded here: the following room-list broadcast is authoritative, which
// keeps local state consistent if the ack and the broadcast race.
func (d *RoomDirectory) ApplyCreated() {
	d.creating = false
}

// MarkCreating records that a creation request is in flight.
func (d *RoomDirectory) MarkCreating() {
	d.creating = true
}

// Creating reports whether a creation request is awaiting its ack.
func (d *RoomDirectory) Creating() bool {
	return d.creating
}

// Rooms returns a copy of the known room set in delivered order.
func (d *RoomDirectory) Rooms() []Room {
	out := make([]Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}

// Lookup finds a room by id.
func (d *RoomDirectory) Lookup(id string) (Room, bool) {
	if i, ok := d.byID[id]; ok {
		return d.rooms[i], true
	}
	return Room{}, false
}

// Current returns the joined room, if any.
func (d *RoomDirectory) Current() (Room, bool) {
	return d.current, d.joined
}

// Clear forgets everything: room set, current join, pending creation.
func (d *RoomDirectory) Clear() {
	d.rooms = nil
	d.byID = make(map[string]int)
	d.current = Room{}
	d.joined = false
	d.creating = false
}
