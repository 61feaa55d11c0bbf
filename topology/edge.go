package topology

import "fmt"

// An Edge is an undirected link. A is always the smaller endpoint.
type Edge struct {
	A int `json:"a" yaml:"a"`
	B int `json:"b" yaml:"b"`
}

// NewEdge normalizes the pair so that A < B. It returns false for a self
// loop.
func NewEdge(a, b int) (Edge, bool) {
	if a == b {
		return Edge{}, false
	}

	if a > b {
		a, b = b, a
	}

	return Edge{A: a, B: b}, true
}

// Other returns the endpoint that is not id.
func (e Edge) Other(id int) int {
	if e.A == id {
		return e.B
	}

	return e.A
}

func (e Edge) String() string {
	return fmt.Sprintf("%d-%d", e.A, e.B)
}
