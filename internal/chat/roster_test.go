package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbordet/oort-chat-demo/internal/proto"
)

func TestRosterJoinThenLeaveEmpties(t *testing.T) {
	req := require.New(t)
	roster := NewRosterTracker()

	roster.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "a"}})
	req.Equal([]string{"a"}, roster.Snapshot())

	roster.ApplyDelta(proto.ActionLeave, []proto.UserInfo{{ID: "a"}})
	req.Empty(roster.Snapshot())
}

func TestRosterLeaveAbsentIsNoop(t *testing.T) {
	req := require.New(t)
	roster := NewRosterTracker()

	roster.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "a"}})
	roster.ApplyDelta(proto.ActionLeave, []proto.UserInfo{{ID: "ghost"}})
	req.Equal([]string{"a"}, roster.Snapshot())
}

func TestRosterJoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	roster := NewRosterTracker()

	roster.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "a"}})
	roster.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "a"}})
	req.Equal([]string{"a"}, roster.Snapshot())
	req.Equal(1, roster.Len())
}

func TestRosterSnapshotSortedRegardlessOfArrival(t *testing.T) {
	req := require.New(t)

	first := NewRosterTracker()
	first.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "bob"}})
	first.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "alice"}})

	second := NewRosterTracker()
	second.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "alice"}, {ID: "bob"}})

	req.Equal([]string{"alice", "bob"}, first.Snapshot())
	req.Equal([]string{"alice", "bob"}, second.Snapshot())
}

func TestRosterUnknownActionIgnored(t *testing.T) {
	req := require.New(t)
	roster := NewRosterTracker()

	roster.ApplyDelta("promote", []proto.UserInfo{{ID: "a"}})
	req.Empty(roster.Snapshot())
}

func TestRosterClear(t *testing.T) {
	req := require.New(t)
	roster := NewRosterTracker()

	roster.ApplyDelta(proto.ActionJoin, []proto.UserInfo{{ID: "a"}, {ID: "b"}})
	roster.Clear()
	req.Empty(roster.Snapshot())
	req.Zero(roster.Len())
}
