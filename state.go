package depthflow

import "fmt"

// State is the lifecycle state of an Engine.
type State int32

// Engine states.
const (
	// StateUninitialized is the state after New and after Teardown.
	// SetParameters and DrawFrame do nothing.
	StateUninitialized State = iota

	// StateReady means every GPU object exists and frames can be drawn.
	StateReady

	// StateFailed means the last Initialize failed. Nothing is held; a
	// later Initialize starts over from scratch.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a snapshot of an Engine's counters.
type Stats struct {
	// Adapter names the physical device, empty unless Ready.
	Adapter string

	// Width and Height are the current swapchain extent.
	Width  uint32
	Height uint32

	// Frames counts presented frames, Skipped counts dropped ones.
	Frames  uint64
	Skipped uint64

	// Rebuilds counts swapchain rebuilds after initialization.
	Rebuilds uint64

	// Time is the time value of the last presented frame.
	Time float32

	MemoryUsed uint64
	MemoryPeak uint64

	// Placeholders maps each texture slot that holds a placeholder to
	// the reason ("missing", "corrupt" or "no-provider").
	Placeholders map[string]string
}
