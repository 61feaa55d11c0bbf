// Package topology builds the static network that a flood runs over.
package topology

import (
	"math"

	"github.com/pkg/errors"
)

// Area is the drawing rectangle node positions are placed in.
type Area struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DefaultArea is the 800x600 window of the original visualization.
var DefaultArea = Area{Width: 800, Height: 600}

// A Graph is a set of nodes and the undirected edges between them. The node
// set and the edge set never change after the graph is built.
type Graph struct {
	nodes   []*Node
	edges   []Edge
	edgeSet map[Edge]struct{}
}

func newGraph(positions []Position) *Graph {
	g := &Graph{
		nodes:   make([]*Node, len(positions)),
		edgeSet: make(map[Edge]struct{}),
	}

	for i, pos := range positions {
		g.nodes[i] = newNode(i, pos)
	}

	return g
}

// addEdge accepts the pair if it is not a self loop and not already present.
func (g *Graph) addEdge(a, b int) bool {
	e, ok := NewEdge(a, b)
	if !ok {
		return false
	}

	if _, dup := g.edgeSet[e]; dup {
		return false
	}

	g.edges = append(g.edges, e)
	g.edgeSet[e] = struct{}{}

	return true
}

func (g *Graph) removeEdge(e Edge) {
	delete(g.edgeSet, e)

	for i, x := range g.edges {
		if x == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return
		}
	}
}

// linkNeighbors fills the neighbor lists from the accepted edges, both
// directions.
func (g *Graph) linkNeighbors() {
	for _, n := range g.nodes {
		n.neighbors = nil
	}

	for _, e := range g.edges {
		g.nodes[e.A].neighbors = append(g.nodes[e.A].neighbors, e.B)
		g.nodes[e.B].neighbors = append(g.nodes[e.B].neighbors, e.A)
	}
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(g.nodes) {
		return nil, false
	}

	return g.nodes[id], true
}

// Nodes returns all nodes ordered by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)

	return nodes
}

// Edges returns the edges in the order they were accepted.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)

	return edges
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// HasEdge tells if a and b are adjacent.
func (g *Graph) HasEdge(a, b int) bool {
	e, ok := NewEdge(a, b)
	if !ok {
		return false
	}

	_, found := g.edgeSet[e]

	return found
}

// NodeAt returns the first node whose position is within radius of (x, y).
func (g *Graph) NodeAt(x, y, radius float64) (*Node, bool) {
	for _, n := range g.nodes {
		if n.Covers(x, y, radius) {
			return n, true
		}
	}

	return nil, false
}

// ClearReceipts empties the receipt set of every node.
func (g *Graph) ClearReceipts() {
	for _, n := range g.nodes {
		n.ClearReceipts()
	}
}

// FromEdges builds a graph with numNodes nodes and exactly the given edges.
// Nodes are laid out on a circle inside DefaultArea.
func FromEdges(numNodes int, edges [][2]int) (*Graph, error) {
	if numNodes < 0 {
		return nil, errors.Wrapf(ErrInvalidParameters,
			"negative node count %d", numNodes)
	}

	g := newGraph(circleLayout(numNodes, DefaultArea))

	for _, pair := range edges {
		a, b := pair[0], pair[1]
		if a < 0 || a >= numNodes || b < 0 || b >= numNodes {
			return nil, errors.Wrapf(ErrInvalidParameters,
				"edge %d-%d refers to a missing node", a, b)
		}

		if !g.addEdge(a, b) {
			return nil, errors.Wrapf(ErrInvalidParameters,
				"edge %d-%d is a self loop or a duplicate", a, b)
		}
	}

	g.linkNeighbors()

	return g, nil
}

// FullMesh builds a graph in which every pair of nodes is adjacent.
func FullMesh(numNodes int) (*Graph, error) {
	var edges [][2]int

	for a := 0; a < numNodes; a++ {
		for b := a + 1; b < numNodes; b++ {
			edges = append(edges, [2]int{a, b})
		}
	}

	return FromEdges(numNodes, edges)
}

// Line builds the path 0-1-2-...-(numNodes-1).
func Line(numNodes int) (*Graph, error) {
	var edges [][2]int

	for a := 0; a+1 < numNodes; a++ {
		edges = append(edges, [2]int{a, a + 1})
	}

	return FromEdges(numNodes, edges)
}

func circleLayout(numNodes int, area Area) []Position {
	positions := make([]Position, numNodes)
	if numNodes <= 0 {
		return positions
	}

	cx, cy := area.Width/2, area.Height/2
	r := math.Min(cx, cy) * 0.8

	for i := range positions {
		angle := 2 * math.Pi * float64(i) / float64(numNodes)
		positions[i] = Position{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}

	return positions
}
