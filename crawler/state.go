package crawler

// State is the position of a session in its processing cycle.
type State int32

const (
	StateIdle State = iota
	StateSeeded
	StateDequeuing
	StateFetching
	StateFetchFailed
	StateFetched
	StateExtracting
	StateClassifying
	StateScoring
	StatePersisted
	StateFrontierExhausted
	StateMaxURLsReached
	StateFinalizing
	StateCompleted
	StateAborted
)

var stateNames = [...]string{
	StateIdle:              "IDLE",
	StateSeeded:            "SEEDED",
	StateDequeuing:         "DEQUEUING",
	StateFetching:          "FETCHING",
	StateFetchFailed:       "FETCH_FAILED",
	StateFetched:           "FETCHED",
	StateExtracting:        "EXTRACTING",
	StateClassifying:       "CLASSIFYING",
	StateScoring:           "SCORING",
	StatePersisted:         "PERSISTED",
	StateFrontierExhausted: "FRONTIER_EXHAUSTED",
	StateMaxURLsReached:    "MAX_URLS_REACHED",
	StateFinalizing:        "FINALIZING",
	StateCompleted:         "COMPLETED",
	StateAborted:           "ABORTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}
