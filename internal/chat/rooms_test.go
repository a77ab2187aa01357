package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectoryReplaceAllRefreshesCurrentName(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	dir.ReplaceAll([]Room{{ID: "1", Name: "renamed lobby"}, {ID: "2", Name: "den"}})

	current, ok := dir.Current()
	req.True(ok)
	req.Equal("renamed lobby", current.Name)
	req.Equal("1", current.ID)
}

func TestDirectoryReplaceAllDropsRemovedCurrent(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	dir.ReplaceAll([]Room{{ID: "2", Name: "den"}})

	_, ok := dir.Current()
	req.False(ok)
}

func TestDirectoryJoinedBeforeListTolerated(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	// The join ack and the room-list broadcast have no relative ordering.
	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	current, ok := dir.Current()
	req.True(ok)
	req.Equal("lobby", current.Name)

	dir.ReplaceAll([]Room{{ID: "1", Name: "lobby"}})
	current, ok = dir.Current()
	req.True(ok)
	req.Equal("1", current.ID)
}

func TestDirectoryApplyLeftOtherRoomKeepsCurrent(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	req.False(dir.ApplyLeft(Room{ID: "2", Name: "den"}))

	_, ok := dir.Current()
	req.True(ok)
}

func TestDirectoryApplyLeftClearsCurrent(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	req.True(dir.ApplyLeft(Room{ID: "1", Name: "lobby"}))

	_, ok := dir.Current()
	req.False(ok)
}

func TestDirectoryApplyEditedRenamesOnly(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ReplaceAll([]Room{{ID: "1", Name: "lobby"}, {ID: "2", Name: "den"}})
	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	dir.ApplyEdited(Room{ID: "1", Name: "hall"})

	room, ok := dir.Lookup("1")
	req.True(ok)
	req.Equal("hall", room.Name)

	current, ok := dir.Current()
	req.True(ok)
	req.Equal("1", current.ID)
	req.Equal("hall", current.Name)

	other, ok := dir.Lookup("2")
	req.True(ok)
	req.Equal("den", other.Name)
}

func TestDirectoryApplyCreatedDoesNotAdd(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.MarkCreating()
	req.True(dir.Creating())

	// The ack only settles the pending request; the room appears through the
	// next room-list broadcast.
	dir.ApplyCreated()
	req.False(dir.Creating())
	req.Empty(dir.Rooms())
}

func TestDirectoryRoomsReturnsCopy(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ReplaceAll([]Room{{ID: "1", Name: "lobby"}})
	rooms := dir.Rooms()
	rooms[0].Name = "mutated"

	room, _ := dir.Lookup("1")
	req.Equal("lobby", room.Name)
}

func TestDirectoryClear(t *testing.T) {
	req := require.New(t)
	dir := NewRoomDirectory()

	dir.ReplaceAll([]Room{{ID: "1", Name: "lobby"}})
	dir.ApplyJoined(Room{ID: "1", Name: "lobby"})
	dir.MarkCreating()
	dir.Clear()

	req.Empty(dir.Rooms())
	_, ok := dir.Current()
	req.False(ok)
	req.False(dir.Creating())
}
