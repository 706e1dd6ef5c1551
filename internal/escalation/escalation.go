// Package escalation defines the tagged error value the engine routes to
// handler tasks, and the lookup tables used to find those handlers.
//
// A Kind is a dotted tag such as "db.timeout". Tables are matched by walking
// the tag hierarchy from the most specific kind to its ancestors ("db.timeout",
// then "db"), finally trying the catch-all kind Any.
package escalation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an escalation. Dots separate hierarchy levels.
type Kind string

const (
	// Any matches every kind. It is tried after the hierarchy walk.
	Any Kind = "*"
	// KindError tags plain Go errors that carry no kind of their own.
	KindError Kind = "error"
	// KindPanic tags a recovered panic from task logic.
	KindPanic Kind = "panic"
	// KindResource tags a failure to source a resource.
	KindResource Kind = "resource"
	// KindSupervision tags a failed supervision action.
	KindSupervision Kind = "supervision"
)

// Parent returns the next-less-specific kind, e.g. "db" for "db.timeout".
func (k Kind) Parent() (Kind, bool) {
	i := strings.LastIndexByte(string(k), '.')
	if i <= 0 {
		return "", false
	}
	return k[:i], true
}

// Escalation is a failure raised inside the scheduler: a kind tag plus an
// opaque payload, optionally wrapping the Go error that caused it.
type Escalation struct {
	Kind    Kind
	Payload any
	Cause   error
	// Task is the name of the task the escalation was raised from. The
	// engine fills it in when it is empty.
	Task string
}

// New creates an escalation of the given kind.
func New(kind Kind, payload any) *Escalation {
	return &Escalation{Kind: kind, Payload: payload}
}

// Wrap creates an escalation of the given kind caused by err.
func Wrap(kind Kind, err error) *Escalation {
	return &Escalation{Kind: kind, Cause: err}
}

// From converts any error into an escalation. An escalation found in the
// chain of err is returned as is; anything else is wrapped with fallback.
func From(err error, fallback Kind) *Escalation {
	if err == nil {
		return nil
	}
	var esc *Escalation
	if errors.As(err, &esc) {
		return esc
	}
	return Wrap(fallback, err)
}

// Error implements the error interface.
func (e *Escalation) Error() string {
	var b strings.Builder
	b.WriteString("escalation ")
	b.WriteString(string(e.Kind))
	if e.Task != "" {
		fmt.Fprintf(&b, " from task '%s'", e.Task)
	}
	switch {
	case e.Cause != nil:
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	case e.Payload != nil:
		fmt.Fprintf(&b, ": %v", e.Payload)
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Escalation) Unwrap() error {
	return e.Cause
}

// Table maps escalation kinds to handler task indices. Tables are built once
// per compiled graph and only read afterwards.
type Table map[Kind]int

// Match finds the handler for kind, nearest kind in the hierarchy first.
func (t Table) Match(kind Kind) (int, bool) {
	if len(t) == 0 {
		return 0, false
	}
	for cur := kind; ; {
		if idx, ok := t[cur]; ok {
			return idx, true
		}
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		cur = parent
	}
	idx, ok := t[Any]
	return idx, ok
}
