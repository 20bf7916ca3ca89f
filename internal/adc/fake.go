package adc

import (
	"errors"
	"sync"
)

// FakeConverter is a test double that returns scripted results.
type FakeConverter struct {
	mu sync.Mutex

	// Results contains scripted values. Each call to Result consumes the
	// next one; once exhausted the last one repeats.
	Results []uint16

	index int

	// ResultError, if set, will be returned by Result.
	ResultError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeConverter creates a FakeConverter with the given results.
func NewFakeConverter(results ...uint16) *FakeConverter {
	return &FakeConverter{Results: results}
}

// Result returns the next scripted result.
func (f *FakeConverter) Result() (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ResultError != nil {
		return 0, f.ResultError
	}
	if len(f.Results) == 0 {
		return 0, errors.New("no results configured")
	}

	v := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return v, nil
}

// Set replaces the script with a single repeating result.
func (f *FakeConverter) Set(v uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Results = []uint16{v}
	f.index = 0
}

// Close marks the converter as closed.
func (f *FakeConverter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}
