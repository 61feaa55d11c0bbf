package tracing

import (
	"sync"

	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
)

// OutcomeCounter counts how many steps ended with each outcome.
type OutcomeCounter struct {
	lock   sync.Mutex
	names  []string
	counts map[flooding.Outcome]uint64
}

// NewOutcomeCounter creates a new OutcomeCounter.
func NewOutcomeCounter() *OutcomeCounter {
	return &OutcomeCounter{
		counts: make(map[flooding.Outcome]uint64),
	}
}

// Func counts the outcome of finished steps.
func (c *OutcomeCounter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != flooding.HookPosAfterStep {
		return
	}

	result := ctx.Detail.(flooding.StepResult)

	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.counts[result.Outcome]; !ok {
		c.names = append(c.names, result.Outcome.String())
	}

	c.counts[result.Outcome]++
}

// GetOutcomeNames returns the outcomes seen, in order of first appearance.
func (c *OutcomeCounter) GetOutcomeNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.names))
	copy(names, c.names)

	return names
}

// GetCount returns how many steps ended with the outcome.
func (c *OutcomeCounter) GetCount(o flooding.Outcome) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[o]
}

// Total returns the number of steps counted.
func (c *OutcomeCounter) Total() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	var total uint64
	for _, n := range c.counts {
		total += n
	}

	return total
}
