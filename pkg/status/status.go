package status

// Phase tracks how far a deployment run has progressed. A run moves
// PENDING -> RUNTIME_READY -> BUILT -> VERIFIED; any error short-circuits
// the remaining steps and leaves the run FAILED.
type Phase string

const (
	PENDING       Phase = "PENDING"
	RUNTIME_READY Phase = "RUNTIME_READY"
	BUILT         Phase = "BUILT"
	VERIFIED      Phase = "VERIFIED"
	FAILED        Phase = "FAILED"
)
