// Package supervision tracks activation of supervision aspects, such as a
// database transaction, around the task nodes that require them.
//
// An active aspect governs the resources loaded by the tasks running under
// it. Leaving the aspect either enforces the tracked state (commit) or
// disregards it (rollback), depending on the Strategy.
package supervision

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Strategy selects how an aspect is left.
type Strategy string

const (
	Enforce   Strategy = "enforce"
	Disregard Strategy = "disregard"
)

// ErrUnknownStrategy is returned when a deactivation strategy is not one of
// Enforce or Disregard.
var ErrUnknownStrategy = errors.New("unknown deactivation strategy")

// ParseStrategy converts a configuration string. The empty string selects
// Enforce.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Enforce:
		return Enforce, nil
	case Disregard:
		return Disregard, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnknownStrategy, s)
	}
}

// Unit is the live state of one activated aspect.
type Unit interface {
	Activate(ctx context.Context) error
	// Govern places a resource object under the aspect.
	Govern(ctx context.Context, resource string, obj any) error
	Enforce(ctx context.Context) error
	Disregard(ctx context.Context) error
}

// Factory creates a fresh Unit for each activation.
type Factory func(ctx context.Context, args cty.Value) (Unit, error)

// Transition names an action taken on a container, for observers.
type Transition string

const (
	TransitionActivate  Transition = "activate"
	TransitionEnforce   Transition = "enforce"
	TransitionDisregard Transition = "disregard"
)

// Container is the activation state of one aspect within one Set.
type Container struct {
	name     string
	index    int
	strategy Strategy
	factory  Factory
	args     cty.Value
	observe  func(aspect string, t Transition)

	mu       sync.Mutex
	active   bool
	unit     Unit
	governed map[any]bool
}

// Name returns the aspect name.
func (c *Container) Name() string { return c.name }

// Strategy returns the configured deactivation strategy.
func (c *Container) Strategy() Strategy { return c.strategy }

// Active reports whether the aspect is currently active.
func (c *Container) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate starts the aspect. Activating an active aspect is a no-op.
func (c *Container) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil
	}
	logger := ctxlog.FromContext(ctx).With("supervision", c.name)
	logger.Debug("Activating supervision.")

	if c.factory == nil {
		return fmt.Errorf("no factory for supervision '%s'", c.name)
	}
	unit, err := c.factory(ctx, c.args)
	if err != nil {
		return fmt.Errorf("creating supervision '%s': %w", c.name, err)
	}
	if err := unit.Activate(ctx); err != nil {
		return fmt.Errorf("activating supervision '%s': %w", c.name, err)
	}
	c.unit = unit
	c.active = true
	c.governed = make(map[any]bool)
	c.emit(TransitionActivate)
	return nil
}

// Govern places obj under the aspect once per key. Inactive aspects ignore
// the call.
func (c *Container) Govern(ctx context.Context, key any, resource string, obj any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.governed[key] {
		return nil
	}
	if err := c.unit.Govern(ctx, resource, obj); err != nil {
		return fmt.Errorf("supervision '%s' governing resource '%s': %w", c.name, resource, err)
	}
	c.governed[key] = true
	return nil
}

// Deactivate leaves the aspect with the given strategy. The aspect is
// inactive afterwards even when the action fails. Deactivating an inactive
// aspect is a no-op.
func (c *Container) Deactivate(ctx context.Context, strategy Strategy) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return nil
	}
	var t Transition
	switch strategy {
	case Enforce:
		t = TransitionEnforce
	case Disregard:
		t = TransitionDisregard
	default:
		return fmt.Errorf("supervision '%s': %w: '%s'", c.name, ErrUnknownStrategy, strategy)
	}

	ctxlog.FromContext(ctx).Debug("Deactivating supervision.", "supervision", c.name, "strategy", string(strategy))
	unit := c.unit
	c.active = false
	c.unit = nil
	c.governed = nil
	c.emit(t)

	var err error
	if t == TransitionEnforce {
		err = unit.Enforce(ctx)
	} else {
		err = unit.Disregard(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s supervision '%s': %w", t, c.name, err)
	}
	return nil
}

func (c *Container) emit(t Transition) {
	if c.observe != nil {
		c.observe(c.name, t)
	}
}
