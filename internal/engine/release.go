package engine

// releaseStack records how to destroy what was created, in creation order.
// Unwinding runs the recorded functions in reverse.
type releaseStack struct {
	entries []releaseEntry
}

type releaseEntry struct {
	name string
	fn   func()
}

// push records fn as the release of the object called name.
func (s *releaseStack) push(name string, fn func()) {
	s.entries = append(s.entries, releaseEntry{name: name, fn: fn})
}

// depth returns the number of recorded entries.
func (s *releaseStack) depth() int { return len(s.entries) }

// unwind releases entries in reverse order until depth n remains.
func (s *releaseStack) unwind(n int) {
	for len(s.entries) > n {
		last := len(s.entries) - 1
		e := s.entries[last]
		s.entries = s.entries[:last]
		slogger().Debug("engine: release", "object", e.name)
		e.fn()
	}
}

// adopt moves every entry of other on top of s, leaving other empty.
func (s *releaseStack) adopt(other *releaseStack) {
	s.entries = append(s.entries, other.entries...)
	other.entries = nil
}
