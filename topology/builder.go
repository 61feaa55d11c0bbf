package topology

import (
	"math/rand"

	"github.com/pkg/errors"
)

// The size of the graph in the original program.
const (
	DefaultNumNodes  = 5
	DefaultMaxDegree = 3
)

// Builder generates random graphs whose nodes all have a degree no greater
// than a cap.
type Builder struct {
	numNodes    int
	maxDegree   int
	area        Area
	rand        *rand.Rand
	maxAttempts int
}

// MakeBuilder creates a builder with the defaults of the original program:
// 5 nodes, at most 3 edges per node, positions in an 800x600 area.
func MakeBuilder() Builder {
	return Builder{
		numNodes:  DefaultNumNodes,
		maxDegree: DefaultMaxDegree,
		area:      DefaultArea,
	}
}

// WithNumNodes sets the number of nodes.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithMaxDegree sets the maximum number of edges a node may have.
func (b Builder) WithMaxDegree(d int) Builder {
	b.maxDegree = d
	return b
}

// WithArea sets the rectangle node positions are drawn from.
func (b Builder) WithArea(area Area) Builder {
	b.area = area
	return b
}

// WithRand sets the random source. Builds sharing a source are not safe for
// concurrent use.
func (b Builder) WithRand(r *rand.Rand) Builder {
	b.rand = r
	return b
}

// WithSeed sets a fresh random source seeded with seed.
func (b Builder) WithSeed(seed int64) Builder {
	b.rand = rand.New(rand.NewSource(seed))
	return b
}

// WithMaxAttempts bounds the number of random pairs drawn. Zero selects a
// budget that never runs out before the completion phase takes over.
func (b Builder) WithMaxAttempts(n int) Builder {
	b.maxAttempts = n
	return b
}

// TargetEdges returns the number of edges a build places, floor(N*D/2).
func (b Builder) TargetEdges() int {
	return b.numNodes * b.maxDegree / 2
}

func (b Builder) parametersMustBeValid() error {
	if b.numNodes < 0 {
		return errors.Wrapf(ErrInvalidParameters,
			"negative node count %d", b.numNodes)
	}

	if b.maxDegree < 0 {
		return errors.Wrapf(ErrInvalidParameters,
			"negative max degree %d", b.maxDegree)
	}

	if b.maxAttempts < 0 {
		return errors.Wrapf(ErrInvalidParameters,
			"negative attempt budget %d", b.maxAttempts)
	}

	return nil
}

// stallLimit is the number of rejected draws in a row after which the random
// phase gives way to the completion phase.
func (b Builder) stallLimit() int {
	return 4*b.numNodes + 16
}

// attemptBudget bounds the random draws. The default is large enough for the
// random phase to always reach either the target or a stall.
func (b Builder) attemptBudget() int {
	if b.maxAttempts > 0 {
		return b.maxAttempts
	}

	return (b.TargetEdges()+1)*b.stallLimit() + 1
}

// Build draws the node positions and then random node pairs until
// floor(N*D/2) edges are placed. A pair is accepted when it is not a self
// loop, not already present and both endpoints are below the degree cap.
//
// When too many draws in a row are rejected, the remaining edges are placed
// by the completion phase: it picks random acceptable pairs while there are
// some, and otherwise swaps an existing edge for two new ones that attach the
// nodes still below the cap. Any N and D with N*D/2 <= N(N-1)/2 can be
// completed this way.
//
// Build fails with ErrGenerationFailed when the target cannot be held by N
// nodes, or when an explicit attempt budget is spent in the random phase.
func (b Builder) Build() (*Graph, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	n := b.numNodes
	target := b.TargetEdges()

	if target > n*(n-1)/2 {
		return nil, errors.Wrapf(ErrGenerationFailed,
			"%d nodes cannot hold %d edges", n, target)
	}

	rng := b.rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	g := newGraph(b.randomPositions(rng))
	p := placement{
		graph:     g,
		maxDegree: b.maxDegree,
		degree:    make([]int, n),
	}

	stalled := 0
	for attempts := b.attemptBudget(); len(g.edges) < target; attempts-- {
		if attempts == 0 {
			return nil, errors.Wrapf(ErrGenerationFailed,
				"attempt budget spent after placing %d of %d edges "+
					"(nodes %d, max degree %d)",
				len(g.edges), target, n, b.maxDegree)
		}

		if p.tryPair(rng.Intn(n), rng.Intn(n)) {
			stalled = 0
			continue
		}

		stalled++
		if stalled >= b.stallLimit() {
			break
		}
	}

	if !p.complete(target, rng) {
		return nil, errors.Wrapf(ErrGenerationFailed,
			"placed %d of %d edges (nodes %d, max degree %d)",
			len(g.edges), target, n, b.maxDegree)
	}

	g.linkNeighbors()

	return g, nil
}

func (b Builder) randomPositions(rng *rand.Rand) []Position {
	positions := make([]Position, b.numNodes)
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64() * b.area.Width,
			Y: rng.Float64() * b.area.Height,
		}
	}

	return positions
}

// placement tracks per-node degrees while edges are being accepted.
type placement struct {
	graph     *Graph
	maxDegree int
	degree    []int
}

func (p *placement) tryPair(a, b int) bool {
	if p.degree[a] >= p.maxDegree || p.degree[b] >= p.maxDegree {
		return false
	}

	if !p.graph.addEdge(a, b) {
		return false
	}

	p.degree[a]++
	p.degree[b]++

	return true
}

// candidates lists the pairs that could still be accepted.
func (p *placement) candidates() [][2]int {
	var pairs [][2]int

	n := len(p.degree)
	for a := 0; a < n; a++ {
		if p.degree[a] >= p.maxDegree {
			continue
		}

		for b := a + 1; b < n; b++ {
			if p.degree[b] < p.maxDegree && !p.graph.HasEdge(a, b) {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	}

	return pairs
}

// open lists the nodes below the degree cap.
func (p *placement) open() []int {
	var nodes []int

	for i, d := range p.degree {
		if d < p.maxDegree {
			nodes = append(nodes, i)
		}
	}

	return nodes
}

// complete places edges until there are target of them. It reports false
// only if neither an acceptable pair nor a swap exists.
func (p *placement) complete(target int, rng *rand.Rand) bool {
	for len(p.graph.edges) < target {
		if pairs := p.candidates(); len(pairs) > 0 {
			pair := pairs[rng.Intn(len(pairs))]
			p.tryPair(pair[0], pair[1])

			continue
		}

		if !p.repair() {
			return false
		}
	}

	return true
}

// repair adds one edge when no acceptable pair is left. Every node below the
// cap is then adjacent to every other node below the cap.
func (p *placement) repair() bool {
	open := p.open()

	switch {
	case len(open) >= 2:
		return p.repairPair(open[0], open[1])
	case len(open) == 1 && p.maxDegree-p.degree[open[0]] >= 2:
		return p.repairSingle(open[0])
	default:
		return false
	}
}

// repairPair replaces an edge (u, v) with (a, u) and (b, v). The degrees of u
// and v are unchanged and a and b gain one each.
func (p *placement) repairPair(a, b int) bool {
	for _, e := range p.graph.edges {
		for _, uv := range [2][2]int{{e.A, e.B}, {e.B, e.A}} {
			u, v := uv[0], uv[1]
			if u == a || u == b || v == a || v == b {
				continue
			}

			if p.graph.HasEdge(a, u) || p.graph.HasEdge(b, v) {
				continue
			}

			p.graph.removeEdge(e)
			p.graph.addEdge(a, u)
			p.graph.addEdge(b, v)
			p.degree[a]++
			p.degree[b]++

			return true
		}
	}

	return false
}

// repairSingle replaces an edge (u, v) with (a, u) and (a, v), so a gains two.
func (p *placement) repairSingle(a int) bool {
	for _, e := range p.graph.edges {
		if e.A == a || e.B == a {
			continue
		}

		if p.graph.HasEdge(a, e.A) || p.graph.HasEdge(a, e.B) {
			continue
		}

		p.graph.removeEdge(e)
		p.graph.addEdge(a, e.A)
		p.graph.addEdge(a, e.B)
		p.degree[a] += 2

		return true
	}

	return false
}
