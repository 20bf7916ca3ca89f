package gpio

import "sync"

// FakeWriter is a test double that records line levels.
// It is safe for concurrent use: the waveform handler writes from its own
// goroutine.
type FakeWriter struct {
	mu sync.Mutex

	levels  map[Line]bool
	toggles map[Line]int
	writes  int
	closed  bool

	// WriteError, if set, will be returned by Set and Toggle.
	WriteError error
}

// NewFakeWriter creates a FakeWriter with every line off.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{
		levels:  make(map[Line]bool),
		toggles: make(map[Line]int),
	}
}

// Set records the new level.
func (f *FakeWriter) Set(line Line, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	f.levels[line] = on
	f.writes++
	return nil
}

// Toggle inverts the recorded level.
func (f *FakeWriter) Toggle(line Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	f.levels[line] = !f.levels[line]
	f.toggles[line]++
	f.writes++
	return nil
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

// Level returns the current level of line.
func (f *FakeWriter) Level(line Line) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.levels[line]
}

// Toggles returns how many times line was toggled.
func (f *FakeWriter) Toggles(line Line) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.toggles[line]
}

// Writes returns the number of successful Set and Toggle calls.
func (f *FakeWriter) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.writes
}

// Closed reports whether Close was called.
func (f *FakeWriter) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// Reset turns every line off and clears the counters.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.levels = make(map[Line]bool)
	f.toggles = make(map[Line]int)
	f.writes = 0
	f.closed = false
	f.WriteError = nil
}
