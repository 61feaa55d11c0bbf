package flooding

import (
	"fmt"

	"github.com/sarchlab/floodsim/topology"
)

// DefaultMessage is the payload broadcast when none is given.
const DefaultMessage = "Hello, Network!"

// A Packet is one copy of a broadcast travelling over one hop. Packets are
// values; forwarding creates new ones.
type Packet struct {
	Message string `json:"message"`

	// Sequence identifies the broadcast. Every copy relayed for the same
	// broadcast carries the same number.
	Sequence uint64 `json:"sequence"`

	// TTL is the remaining hop budget. Queued packets always have TTL >= 1.
	TTL int `json:"ttl"`

	// Sender is the node that relayed the packet, or topology.NoNode for the
	// packet injected at the source.
	Sender int `json:"sender"`

	// Destination is the node that processes the packet next.
	Destination int `json:"destination"`
}

// NewSeedPacket creates the packet that starts a broadcast at source.
func NewSeedPacket(message string, seq uint64, ttl, source int) Packet {
	return Packet{
		Message:     message,
		Sequence:    seq,
		TTL:         ttl,
		Sender:      topology.NoNode,
		Destination: source,
	}
}

// IsSeed tells if the packet was injected rather than relayed.
func (p Packet) IsSeed() bool {
	return p.Sender == topology.NoNode
}

// relay creates the copy that from sends to to with the given remaining
// budget.
func (p Packet) relay(from, to, ttl int) Packet {
	return Packet{
		Message:     p.Message,
		Sequence:    p.Sequence,
		TTL:         ttl,
		Sender:      from,
		Destination: to,
	}
}

func (p Packet) String() string {
	return fmt.Sprintf("seq %d %d->%d ttl %d",
		p.Sequence, p.Sender, p.Destination, p.TTL)
}
