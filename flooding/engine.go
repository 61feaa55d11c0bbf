// Package flooding implements controlled flooding over a static graph. The
// Engine advances a flood one packet per Step and never schedules anything on
// its own; whoever drives it decides the cadence.
package flooding

import (
	"github.com/sarchlab/floodsim/sim/hooking"
	"github.com/sarchlab/floodsim/topology"
)

// HookPosBeforeStep is triggered after a packet is popped and before it is
// processed. The item is the packet.
var HookPosBeforeStep = &hooking.HookPos{Name: "BeforeStep"}

// HookPosAfterStep is triggered after a packet is processed. The item is the
// packet and the detail is the StepResult.
var HookPosAfterStep = &hooking.HookPos{Name: "AfterStep"}

// Outcome tells what a step did with the packet it popped.
type Outcome int

// The outcomes of a step.
const (
	// OutcomeIdle means the queue was empty and nothing was popped.
	OutcomeIdle Outcome = iota

	// OutcomeInvalid means the destination does not exist.
	OutcomeInvalid

	// OutcomeDuplicate means the destination had already received the
	// sequence number.
	OutcomeDuplicate

	// OutcomeExpired means the packet was delivered but its hop budget ran
	// out, so nothing was forwarded.
	OutcomeExpired

	// OutcomeForwarded means the packet was delivered with hop budget left
	// and a copy was queued for every neighbor but the sender. Spawned may be
	// zero when the node has no other neighbor, such as an isolated source or
	// the end of a line.
	OutcomeForwarded
)

var outcomeNames = map[Outcome]string{
	OutcomeIdle:      "idle",
	OutcomeInvalid:   "invalid",
	OutcomeDuplicate: "duplicate",
	OutcomeExpired:   "expired",
	OutcomeForwarded: "forwarded",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}

	return "unknown"
}

// Delivered tells if the destination recorded the packet.
func (o Outcome) Delivered() bool {
	return o == OutcomeExpired || o == OutcomeForwarded
}

// A Transfer is one successful delivery, from Sender to Receiver. The seed
// delivery has Sender topology.NoNode.
type Transfer struct {
	Sender   int `json:"sender"`
	Receiver int `json:"receiver"`
}

// StepResult reports what one Step did.
type StepResult struct {
	Outcome Outcome
	Packet  Packet
	Spawned int
}

// An Engine owns the pending-packet queue and the transfer log of one flood.
// It is not safe for concurrent use.
type Engine struct {
	hooking.HookableBase

	graph     *topology.Graph
	queue     *packetQueue
	transfers []Transfer
	numSteps  uint64
}

// NewEngine creates an engine that floods over g.
func NewEngine(g *topology.Graph) *Engine {
	return &Engine{
		graph: g,
		queue: newPacketQueue(),
	}
}

// Graph returns the graph the engine floods over.
func (e *Engine) Graph() *topology.Graph {
	return e.graph
}

// Enqueue appends the packet to the back of the queue. The caller guarantees
// that TTL >= 1 and that the destination differs from the sender.
func (e *Engine) Enqueue(p Packet) {
	e.queue.push(p)
}

// IsIdle tells if no packet is waiting.
func (e *Engine) IsIdle() bool {
	return e.queue.len() == 0
}

// QueueLen returns the number of waiting packets.
func (e *Engine) QueueLen() int {
	return e.queue.len()
}

// Pending returns the waiting packets, front first.
func (e *Engine) Pending() []Packet {
	return e.queue.snapshot()
}

// NumSteps returns the number of packets processed since the engine was
// created.
func (e *Engine) NumSteps() uint64 {
	return e.numSteps
}

// Transfers returns the deliveries logged since the log was last cleared.
func (e *Engine) Transfers() []Transfer {
	transfers := make([]Transfer, len(e.transfers))
	copy(transfers, e.transfers)

	return transfers
}

// ClearTransfers empties the transfer log.
func (e *Engine) ClearTransfers() {
	e.transfers = nil
}

// Reset drops every waiting packet, empties the transfer log and clears the
// receipt set of every node.
func (e *Engine) Reset() {
	e.queue.clear()
	e.transfers = nil
	e.graph.ClearReceipts()
}

// Step pops the packet at the front of the queue and processes it:
//
//  1. A packet for a missing node, or for a node that has already recorded
//     its sequence number, is dropped.
//  2. Otherwise the destination records the sequence number and the
//     delivery is logged.
//  3. The hop budget is decremented. At zero nothing is forwarded.
//  4. Otherwise a copy goes to every neighbor except the node the packet
//     came from. The outcome is OutcomeForwarded even when no neighbor is
//     left to copy to; Spawned tells how many copies were queued.
//
// On an empty queue Step does nothing and reports OutcomeIdle.
func (e *Engine) Step() StepResult {
	p, ok := e.queue.pop()
	if !ok {
		return StepResult{Outcome: OutcomeIdle}
	}

	e.numSteps++

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeStep,
		Item:   p,
	}
	e.InvokeHook(hookCtx)

	result := e.process(p)

	hookCtx.Pos = HookPosAfterStep
	hookCtx.Detail = result
	e.InvokeHook(hookCtx)

	return result
}

func (e *Engine) process(p Packet) StepResult {
	result := StepResult{Packet: p}

	node, ok := e.graph.Node(p.Destination)
	if !ok {
		result.Outcome = OutcomeInvalid
		return result
	}

	if !node.Receive(p.Sequence) {
		result.Outcome = OutcomeDuplicate
		return result
	}

	e.transfers = append(e.transfers, Transfer{
		Sender:   p.Sender,
		Receiver: p.Destination,
	})

	ttl := p.TTL - 1
	if ttl <= 0 {
		result.Outcome = OutcomeExpired
		return result
	}

	for _, neighbor := range node.Neighbors() {
		if neighbor == p.Sender {
			continue
		}

		e.queue.push(p.relay(node.ID(), neighbor, ttl))
		result.Spawned++
	}

	result.Outcome = OutcomeForwarded

	return result
}
