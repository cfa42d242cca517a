package constants

// SessionState is the progress of a session's bootstrap through the
// daily log, habits and habit entries.
type SessionState int

const (
	StateEmpty SessionState = iota
	StateLogLoading
	StateLogReady
	StateHabitsLoading
	StateHabitsReady
	StateEntriesLoading
	StateEntriesReady
)

var sessionStateNames = map[SessionState]string{
	StateEmpty:          "empty",
	StateLogLoading:     "log-loading",
	StateLogReady:       "log-ready",
	StateHabitsLoading:  "habits-loading",
	StateHabitsReady:    "habits-ready",
	StateEntriesLoading: "entries-loading",
	StateEntriesReady:   "entries-ready",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Loading reports whether the state is one of the in-flight states.
func (s SessionState) Loading() bool {
	return s == StateLogLoading || s == StateHabitsLoading || s == StateEntriesLoading
}
