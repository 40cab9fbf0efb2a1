package websocket

type groupKind int

const (
	groupAll groupKind = iota
	groupPoll
)

// GroupKey identifies a broadcast group. Keys are comparable values rather
// than formatted strings, so a poll group can never collide with anything
// else.
type GroupKey struct {
	kind   groupKind
	pollID string
}

// PollGroup is the group of connections subscribed to one poll's events.
func PollGroup(pollID string) GroupKey {
	return GroupKey{kind: groupPoll, pollID: pollID}
}

// AllClients is the unscoped group containing every connection.
func AllClients() GroupKey {
	return GroupKey{kind: groupAll}
}
