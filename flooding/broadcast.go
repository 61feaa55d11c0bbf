package flooding

import "github.com/sarchlab/floodsim/sim/hooking"

// A Broadcast describes one logical message injected at a source node.
type Broadcast struct {
	Sequence uint64 `json:"sequence"`
	Source   int    `json:"source"`
	Message  string `json:"message"`
	TTL      int    `json:"ttl"`
}

// Hook positions triggered by whoever owns the engine. The item is the
// Broadcast concerned, if any.
var (
	HookPosBroadcastStart = &hooking.HookPos{Name: "BroadcastStart"}
	HookPosFloodEnd       = &hooking.HookPos{Name: "FloodEnd"}
	HookPosReset          = &hooking.HookPos{Name: "Reset"}
)
