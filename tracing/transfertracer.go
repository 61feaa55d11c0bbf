package tracing

import (
	"sync"

	"github.com/sarchlab/floodsim/datarecording"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
)

// Names of the tables a TransferTracer writes.
const (
	BroadcastTable = "flood_broadcast"
	TransferTable  = "flood_transfer"
	SummaryTable   = "flood_summary"
)

// BroadcastEntry is one row of the broadcast table.
type BroadcastEntry struct {
	RunID    string
	Sequence uint64
	Source   int
	Message  string
	TTL      int
}

// TransferEntry is one delivery.
type TransferEntry struct {
	RunID    string
	Sequence uint64
	Step     uint64
	Sender   int
	Receiver int
	TTL      int
	Outcome  string
}

// SummaryEntry closes a broadcast. Completed is false when the flood was
// reset before it drained.
type SummaryEntry struct {
	RunID      string
	Sequence   uint64
	Deliveries int
	Discarded  int
	Completed  bool
}

// A TransferTracer records broadcasts and their deliveries into a
// DataRecorder. It must be registered both on the engine, for the steps, and
// on its owner, for broadcast starts, flood ends and resets.
type TransferTracer struct {
	lock     sync.Mutex
	backend  datarecording.DataRecorder
	runID    string
	active   bool
	current  SummaryEntry
	numSteps uint64
}

// NewTransferTracer creates the tables and returns the tracer.
func NewTransferTracer(
	backend datarecording.DataRecorder,
	runID string,
) *TransferTracer {
	t := &TransferTracer{
		backend: backend,
		runID:   runID,
	}

	backend.CreateTable(BroadcastTable, BroadcastEntry{})
	backend.CreateTable(TransferTable, TransferEntry{})
	backend.CreateTable(SummaryTable, SummaryEntry{})

	return t
}

// RunID returns the identifier stamped on every row.
func (t *TransferTracer) RunID() string {
	return t.runID
}

// Func records the event at the hook position.
func (t *TransferTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case flooding.HookPosBroadcastStart:
		t.startBroadcast(ctx.Item.(flooding.Broadcast))
	case flooding.HookPosAfterStep:
		t.recordStep(ctx.Detail.(flooding.StepResult))
	case flooding.HookPosFloodEnd:
		t.closeBroadcast(true)
	case flooding.HookPosReset:
		t.closeBroadcast(false)
	}
}

func (t *TransferTracer) startBroadcast(b flooding.Broadcast) {
	t.closeBroadcast(false)

	t.backend.InsertData(BroadcastTable, BroadcastEntry{
		RunID:    t.runID,
		Sequence: b.Sequence,
		Source:   b.Source,
		Message:  b.Message,
		TTL:      b.TTL,
	})

	t.active = true
	t.current = SummaryEntry{
		RunID:    t.runID,
		Sequence: b.Sequence,
	}
}

func (t *TransferTracer) recordStep(result flooding.StepResult) {
	t.numSteps++

	if !t.active || result.Packet.Sequence != t.current.Sequence {
		return
	}

	if !result.Outcome.Delivered() {
		t.current.Discarded++
		return
	}

	t.current.Deliveries++

	t.backend.InsertData(TransferTable, TransferEntry{
		RunID:    t.runID,
		Sequence: result.Packet.Sequence,
		Step:     t.numSteps,
		Sender:   result.Packet.Sender,
		Receiver: result.Packet.Destination,
		TTL:      result.Packet.TTL,
		Outcome:  result.Outcome.String(),
	})
}

func (t *TransferTracer) closeBroadcast(completed bool) {
	if !t.active {
		return
	}

	t.current.Completed = completed
	t.backend.InsertData(SummaryTable, t.current)
	t.active = false
}
