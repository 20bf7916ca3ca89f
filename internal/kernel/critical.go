//go:build !tinygo

package kernel

import "sync"

// Critical excludes the task from the interrupt handlers that share state
// with it. On the Go runtime handlers run on their own goroutines, so the
// section is a mutex.
type Critical struct {
	mu sync.Mutex
}

// Enter begins the critical section.
func (c *Critical) Enter() {
	c.mu.Lock()
}

// Exit ends the critical section.
func (c *Critical) Exit() {
	c.mu.Unlock()
}
