package engine

// State is the orchestrator lifecycle state.
type State int32

// Lifecycle states.
const (
	StateIdle State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Memory is the failure state carried from one run to the next.
type Memory struct {
	LastRunFailed bool
	// FailedPaths holds no duplicates and keeps insertion order.
	FailedPaths []string
}

func (m Memory) clone() Memory {
	return Memory{
		LastRunFailed: m.LastRunFailed,
		FailedPaths:   append([]string(nil), m.FailedPaths...),
	}
}

// dedupe removes repeated paths, keeping the first occurrence.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// without returns paths minus every entry of remove.
func without(paths, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, p := range remove {
		drop[p] = struct{}{}
	}
	var out []string
	for _, p := range paths {
		if _, ok := drop[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
