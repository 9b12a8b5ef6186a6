package hw

//go:generate go tool stringer -type=RunState

// RunState is the state of the frame orchestrator.
type RunState uint8

const (
	Running  RunState = iota // frames are generated
	Paused                   // frozen, counters kept
	Stepping                 // paused, executing single instructions
)
