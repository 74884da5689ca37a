package fsm

// Status constants used by the transport request state machine.
// A qualified request keeps status "open" with qualified_at set; qualification
// is not a separate status value.
const (
	StatusOpen       = "open"
	StatusPublished  = "published_for_matching"
	StatusAccepted   = "accepted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusExpired    = "expired"
	StatusArchived   = "archived"
)

var transitions = map[string]map[string]struct{}{
	StatusOpen: {
		StatusPublished: {},
		StatusAccepted:  {}, // direct manual assignment by coordinator
		StatusCancelled: {},
		StatusExpired:   {},
		StatusArchived:  {},
	},
	StatusPublished: {
		StatusAccepted:  {},
		StatusCancelled: {},
		StatusExpired:   {},
		StatusArchived:  {},
	},
	StatusAccepted: {
		StatusInProgress: {},
		StatusCompleted:  {},
		StatusPublished:  {}, // republish a matched-but-unsatisfied request
		StatusCancelled:  {},
	},
	StatusInProgress: {
		StatusCompleted: {},
	},
	StatusCompleted: {
		StatusPublished: {}, // republish
	},
	StatusCancelled: {},
	StatusExpired:   {},
	StatusArchived:  {},
}

// CanTransition returns whether the request can move from the current status to the target status.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
