package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainStep counts down, recording which goroutine team ran each link.
type chainStep struct {
	team      string
	remaining int
	done      chan struct{}
	runs      *atomic.Int32
}

func (s *chainStep) Team() string { return s.team }

func (s *chainStep) Run(context.Context) Step {
	s.runs.Add(1)
	if s.remaining == 0 {
		close(s.done)
		return nil
	}
	return &chainStep{team: s.team, remaining: s.remaining - 1, done: s.done, runs: s.runs}
}

type funcStep struct {
	team string
	fn   func() Step
}

func (s funcStep) Team() string { return s.team }

func (s funcStep) Run(context.Context) Step { return s.fn() }

func TestPool_RunsLongChainWithoutGrowingStack(t *testing.T) {
	p, err := New(context.Background(), Config{DefaultWorkers: 2})
	require.NoError(t, err)
	defer p.Close()

	var runs atomic.Int32
	done := make(chan struct{})
	p.Dispatch(&chainStep{remaining: 100000, done: done, runs: &runs})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("chain did not finish")
	}
	assert.Equal(t, int32(100001), runs.Load())
}

func TestPool_HandsOffBetweenTeams(t *testing.T) {
	p, err := New(context.Background(), Config{DefaultWorkers: 1, Teams: map[string]int{"io": 1}})
	require.NoError(t, err)
	defer p.Close()

	var mu sync.Mutex
	var teams []string
	record := func(team string) {
		mu.Lock()
		defer mu.Unlock()
		teams = append(teams, team)
	}
	done := make(chan struct{})
	last := funcStep{team: "nowhere", fn: func() Step { record("fallback"); close(done); return nil }}
	second := funcStep{team: "io", fn: func() Step { record("io"); return last }}
	first := funcStep{team: DefaultTeam, fn: func() Step { record(DefaultTeam); return second }}
	p.Dispatch(first)

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{DefaultTeam, "io", "fallback"}, teams)
}

func TestPool_RecoversPanics(t *testing.T) {
	p, err := New(context.Background(), Config{DefaultWorkers: 1})
	require.NoError(t, err)
	defer p.Close()

	done := make(chan struct{})
	p.Dispatch(funcStep{fn: func() Step { panic("boom") }})
	p.Dispatch(funcStep{fn: func() Step { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after panic")
	}
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	p, err := New(context.Background(), Config{DefaultWorkers: 1})
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		p.Dispatch(funcStep{fn: func() Step { ran.Add(1); return nil }})
	}
	p.Close()
	assert.Equal(t, int32(50), ran.Load())

	p.Dispatch(funcStep{fn: func() Step { ran.Add(1); return nil }})
	assert.Equal(t, int32(50), ran.Load())
}

func TestNew_RejectsEmptyTeam(t *testing.T) {
	_, err := New(context.Background(), Config{DefaultWorkers: 0})
	assert.ErrorContains(t, err, "team 'default' needs at least one worker")
}
