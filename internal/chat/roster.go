package chat

import (
	"sort"

	"github.com/samber/lo"

	"github.com/sbordet/oort-chat-demo/internal/proto"
)

// RosterTracker maintains the member set of the joined room from roster
// deltas. The set is scoped to one joined room and emptied on leave, room
// switch or logout.
type RosterTracker struct {
	members map[string]struct{}
}

// NewRosterTracker returns an empty tracker.
func NewRosterTracker() *RosterTracker {
	return &RosterTracker{members: make(map[string]struct{})}
}

// ApplyDelta folds one join/leave delta into the set. Both directions are
// idempotent: re-adding a present member or removing an absent one is a no-op.
// Unknown actions are ignored.
func (r *RosterTracker) ApplyDelta(action string, members []proto.UserInfo) {
	switch action {
	case proto.ActionJoin:
		for _, m := range members {
			r.members[m.ID] = struct{}{}
		}
	case proto.ActionLeave:
		for _, m := range members {
			delete(r.members, m.ID)
		}
	}
}

// Snapshot returns the member ids in ascending lexical order. The ordering is
// a presentation contract: the same set always yields the same slice,
// whatever order the deltas arrived in.
func (r *RosterTracker) Snapshot() []string {
	ids := lo.Keys(r.members)
	sort.Strings(ids)
	return ids
}

// Clear empties the set.
func (r *RosterTracker) Clear() {
	r.members = make(map[string]struct{})
}

// Len returns the current member count.
func (r *RosterTracker) Len() int {
	return len(r.members)
}
