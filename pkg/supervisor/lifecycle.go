package supervisor

// LifecycleState is the observed state of the supervised bridge process.
// desiredEnabled is the commanded intent; LifecycleState is what actually
// happened to the process.
type LifecycleState string

const (
	// LifecycleStopped means no bridge process is owned
	LifecycleStopped LifecycleState = "stopped"

	// LifecycleStarting means the process was spawned but is not yet serving
	LifecycleStarting LifecycleState = "starting"

	// LifecycleWaiting means the process is serving and waiting for a peer
	LifecycleWaiting LifecycleState = "waiting"

	// LifecycleConnected means the bridge is actively serving a peer
	LifecycleConnected LifecycleState = "connected"

	// LifecycleError means the process failed to start or exited unexpectedly
	LifecycleError LifecycleState = "error"
)

// validTransitions defines the allowed lifecycle edges. Transitions outside
// this set indicate a supervisor bug and are rejected.
var validTransitions = map[LifecycleState][]LifecycleState{
	LifecycleStopped: {
		LifecycleStarting, // enable
	},
	LifecycleStarting: {
		LifecycleWaiting, // liveness: serving
		LifecycleError,   // spawn failure or early exit
		LifecycleStopped, // disable
	},
	LifecycleWaiting: {
		LifecycleConnected, // liveness: peer connected
		LifecycleError,     // unexpected exit
		LifecycleStopped,   // disable
	},
	LifecycleConnected: {
		LifecycleError,   // unexpected exit
		LifecycleStopped, // disable
	},
	LifecycleError: {
		LifecycleStarting, // relaunch
		LifecycleStopped,  // disable clears the error
	},
}

// CanTransition reports whether the edge from -> to is allowed.
func CanTransition(from, to LifecycleState) bool {
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// Running reports whether the state implies an owned live process.
func (s LifecycleState) Running() bool {
	switch s {
	case LifecycleStarting, LifecycleWaiting, LifecycleConnected:
		return true
	default:
		return false
	}
}
