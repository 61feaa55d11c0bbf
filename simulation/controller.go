package simulation

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
	"github.com/sarchlab/floodsim/sim/timing"
	"github.com/sarchlab/floodsim/topology"
)

// DefaultTTL is the hop budget of a broadcast in the original program.
const DefaultTTL = 5

// DefaultMessage is the payload broadcast when none is given.
const DefaultMessage = flooding.DefaultMessage

// A Controller is the entry point of a flood simulation. It owns the sequence
// counter and the running flag, and serializes every call into the engine so
// that drivers and observers on different goroutines can share it.
type Controller struct {
	hooking.HookableBase

	lock       sync.Mutex
	engine     *flooding.Engine
	initialTTL int
	sequence   uint64
	running    bool
	current    flooding.Broadcast
}

// NewController creates a controller that starts broadcasts with the given
// hop budget.
func NewController(
	engine *flooding.Engine,
	initialTTL int,
) (*Controller, error) {
	if initialTTL < 1 {
		return nil, errors.Wrapf(ErrInvalidTTL, "got %d", initialTTL)
	}

	c := &Controller{
		engine:     engine,
		initialTTL: initialTTL,
	}

	return c, nil
}

// Engine returns the engine driven by the controller. Callers must not use it
// while other goroutines use the controller.
func (c *Controller) Engine() *flooding.Engine {
	return c.engine
}

// Graph returns the graph the flood runs over.
func (c *Controller) Graph() *topology.Graph {
	return c.engine.Graph()
}

// InitialTTL returns the hop budget of new broadcasts.
func (c *Controller) InitialTTL() int {
	return c.initialTTL
}

// Reset clears every receipt set, drops all pending packets and empties the
// transfer log. It may be called in the middle of a flood.
func (c *Controller) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.reset()
}

func (c *Controller) reset() {
	c.engine.Reset()
	c.running = false

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    flooding.HookPosReset,
		Item:   c.current,
	})
}

// StartBroadcast injects a new broadcast at source and returns its sequence
// number. It does not clear receipts left by earlier floods; use Rebroadcast
// for that.
func (c *Controller) StartBroadcast(
	source int,
	message string,
) (uint64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.startBroadcast(source, message)
}

// Rebroadcast resets the simulation and starts a broadcast at source as one
// operation.
func (c *Controller) Rebroadcast(
	source int,
	message string,
) (uint64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.engine.Graph().Node(source); !ok {
		return 0, c.invalidSource(source)
	}

	c.reset()

	return c.startBroadcast(source, message)
}

// RebroadcastAt starts a broadcast from the node drawn within radius of
// (x, y).
func (c *Controller) RebroadcastAt(
	x, y, radius float64,
	message string,
) (uint64, error) {
	node, ok := c.Graph().NodeAt(x, y, radius)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidSource,
			"no node within %.1f of (%.1f, %.1f)", radius, x, y)
	}

	return c.Rebroadcast(node.ID(), message)
}

func (c *Controller) invalidSource(source int) error {
	return errors.Wrapf(ErrInvalidSource,
		"node %d not in a graph of %d nodes",
		source, c.engine.Graph().NumNodes())
}

func (c *Controller) startBroadcast(
	source int,
	message string,
) (uint64, error) {
	if _, ok := c.engine.Graph().Node(source); !ok {
		return 0, c.invalidSource(source)
	}

	c.sequence++
	c.current = flooding.Broadcast{
		Sequence: c.sequence,
		Source:   source,
		Message:  message,
		TTL:      c.initialTTL,
	}

	c.engine.ClearTransfers()
	c.engine.Enqueue(flooding.NewSeedPacket(
		message, c.sequence, c.initialTTL, source))
	c.running = true

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    flooding.HookPosBroadcastStart,
		Item:   c.current,
	})

	return c.sequence, nil
}

// Step processes one pending packet. Once the queue is empty the running flag
// is cleared.
func (c *Controller) Step() flooding.StepResult {
	c.lock.Lock()
	defer c.lock.Unlock()

	result := c.engine.Step()

	if c.running && c.engine.IsIdle() {
		c.running = false

		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    flooding.HookPosFloodEnd,
			Item:   c.current,
		})
	}

	return result
}

// Drain steps until no packet is pending and returns the number of steps. A
// limit above zero bounds the number of steps.
func (c *Controller) Drain(limit int) (int, error) {
	return timing.DrainNow(c, limit)
}

// IsIdle tells if no packet is pending.
func (c *Controller) IsIdle() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.engine.IsIdle()
}

// IsRunning tells if a broadcast was started and its flood has not been
// drained or reset yet.
func (c *Controller) IsRunning() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.running
}

// Sequence returns the sequence number of the latest broadcast, zero before
// the first one.
func (c *Controller) Sequence() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.sequence
}

// Current returns the latest broadcast.
func (c *Controller) Current() flooding.Broadcast {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.current
}

// Transfers returns the deliveries of the current flood.
func (c *Controller) Transfers() []flooding.Transfer {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.engine.Transfers()
}

// Inspect runs fn while no other call can touch the engine.
func (c *Controller) Inspect(fn func(e *flooding.Engine)) {
	c.lock.Lock()
	defer c.lock.Unlock()

	fn(c.engine)
}
