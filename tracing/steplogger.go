package tracing

import (
	"github.com/gologme/log"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
)

// StepLogger writes one line per step at debug level and one line per
// broadcast start, flood end and reset at info level.
type StepLogger struct {
	logger *log.Logger
}

// NewStepLogger returns a new StepLogger which writes into the logger.
func NewStepLogger(logger *log.Logger) *StepLogger {
	return &StepLogger{logger: logger}
}

// Func writes the information of the hook site into the logger.
func (h *StepLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case flooding.HookPosAfterStep:
		result := ctx.Detail.(flooding.StepResult)
		h.logger.Debugf("%s: %s, spawned %d",
			result.Packet, result.Outcome, result.Spawned)
	case flooding.HookPosBroadcastStart:
		b := ctx.Item.(flooding.Broadcast)
		h.logger.Infof("broadcast %d from node %d, ttl %d: %q",
			b.Sequence, b.Source, b.TTL, b.Message)
	case flooding.HookPosFloodEnd:
		b := ctx.Item.(flooding.Broadcast)
		h.logger.Infof("broadcast %d drained", b.Sequence)
	case flooding.HookPosReset:
		h.logger.Infoln("simulation reset")
	}
}
