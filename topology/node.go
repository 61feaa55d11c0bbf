package topology

import "sort"

// NoNode is the node ID used where no node applies, such as the sender of a
// packet injected at its source.
const NoNode = -1

// Position is a point in the drawing area. It has no meaning to the flood
// itself.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// A Node is a vertex of the network. Its ID, position and neighbor list are
// fixed once the graph is built; only the set of received sequence numbers
// changes while a flood runs.
type Node struct {
	id        int
	position  Position
	neighbors []int
	received  map[uint64]struct{}
}

func newNode(id int, pos Position) *Node {
	return &Node{
		id:       id,
		position: pos,
		received: make(map[uint64]struct{}),
	}
}

// ID returns the ID of the node.
func (n *Node) ID() int {
	return n.id
}

// Position returns where the node is drawn.
func (n *Node) Position() Position {
	return n.position
}

// Neighbors returns the IDs of the adjacent nodes in the order the edges were
// accepted.
func (n *Node) Neighbors() []int {
	neighbors := make([]int, len(n.neighbors))
	copy(neighbors, n.neighbors)

	return neighbors
}

// Degree returns the number of incident edges.
func (n *Node) Degree() int {
	return len(n.neighbors)
}

// HasReceived tells if the node has already seen the broadcast with the given
// sequence number.
func (n *Node) HasReceived(seq uint64) bool {
	_, ok := n.received[seq]
	return ok
}

// Receive records the sequence number. It returns false if the number was
// already recorded.
func (n *Node) Receive(seq uint64) bool {
	if n.HasReceived(seq) {
		return false
	}

	n.received[seq] = struct{}{}

	return true
}

// Received returns the recorded sequence numbers in ascending order.
func (n *Node) Received() []uint64 {
	seqs := make([]uint64, 0, len(n.received))
	for seq := range n.received {
		seqs = append(seqs, seq)
	}

	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	return seqs
}

// ClearReceipts forgets every recorded sequence number.
func (n *Node) ClearReceipts() {
	n.received = make(map[uint64]struct{})
}

// Covers tells if the point (x, y) lies within radius of the node.
func (n *Node) Covers(x, y, radius float64) bool {
	dx := n.position.X - x
	dy := n.position.Y - y

	return dx*dx+dy*dy <= radius*radius
}
