package testutil

import "sync"

// Trace records events from concurrently running tasks in arrival order.
type Trace struct {
	mu     sync.Mutex
	events []string
}

// Add appends an event.
func (tr *Trace) Add(event string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = append(tr.events, event)
}

// Events returns a copy of the recorded events.
func (tr *Trace) Events() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]string, len(tr.events))
	copy(out, tr.events)
	return out
}

// Count returns how many times event was recorded.
func (tr *Trace) Count(event string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	n := 0
	for _, e := range tr.events {
		if e == event {
			n++
		}
	}
	return n
}
