package topology

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func degreeOf(g *Graph, id int) int {
	count := 0
	for _, e := range g.Edges() {
		if e.A == id || e.B == id {
			count++
		}
	}

	return count
}

var _ = Describe("Builder", func() {
	It("should use the original defaults", func() {
		g, err := MakeBuilder().WithSeed(1).Build()

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumNodes()).To(Equal(5))
		Expect(g.NumEdges()).To(Equal(7))
	})

	It("should place nodes inside the area", func() {
		area := Area{Width: 100, Height: 50}
		g, err := MakeBuilder().
			WithNumNodes(30).
			WithMaxDegree(2).
			WithArea(area).
			WithSeed(3).
			Build()

		Expect(err).ToNot(HaveOccurred())
		for _, n := range g.Nodes() {
			Expect(n.Position().X).To(BeNumerically(">=", 0))
			Expect(n.Position().X).To(BeNumerically("<", area.Width))
			Expect(n.Position().Y).To(BeNumerically(">=", 0))
			Expect(n.Position().Y).To(BeNumerically("<", area.Height))
		}
	})

	It("should respect the degree cap on every node", func() {
		for seed := int64(0); seed < 50; seed++ {
			g, err := MakeBuilder().
				WithNumNodes(20).
				WithMaxDegree(4).
				WithSeed(seed).
				Build()

			Expect(err).ToNot(HaveOccurred())
			Expect(g.NumEdges()).To(Equal(40))
			for _, n := range g.Nodes() {
				Expect(n.Degree()).To(BeNumerically("<=", 4))
				Expect(n.Degree()).To(Equal(degreeOf(g, n.ID())))
			}
		}
	})

	It("should never produce self loops or duplicated edges", func() {
		for seed := int64(0); seed < 50; seed++ {
			g, err := MakeBuilder().
				WithNumNodes(12).
				WithMaxDegree(5).
				WithSeed(seed).
				Build()
			Expect(err).ToNot(HaveOccurred())

			seen := make(map[Edge]bool)
			for _, e := range g.Edges() {
				Expect(e.A).To(BeNumerically("<", e.B))
				Expect(seen[e]).To(BeFalse())
				seen[e] = true
			}
		}
	})

	It("should list neighbors in both directions", func() {
		g, err := MakeBuilder().WithNumNodes(10).WithSeed(7).Build()
		Expect(err).ToNot(HaveOccurred())

		for _, e := range g.Edges() {
			a, _ := g.Node(e.A)
			b, _ := g.Node(e.B)
			Expect(a.Neighbors()).To(ContainElement(e.B))
			Expect(b.Neighbors()).To(ContainElement(e.A))
		}
	})

	It("should build a graph without edges when the cap is zero", func() {
		g, err := MakeBuilder().WithNumNodes(5).WithMaxDegree(0).Build()

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumNodes()).To(Equal(5))
		Expect(g.NumEdges()).To(Equal(0))
	})

	It("should build the complete graph when the cap allows nothing else", func() {
		g, err := MakeBuilder().
			WithNumNodes(6).
			WithMaxDegree(5).
			WithSeed(11).
			Build()

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumEdges()).To(Equal(15))
	})

	It("should be reproducible with the same seed", func() {
		g1, err1 := MakeBuilder().WithNumNodes(15).WithSeed(42).Build()
		g2, err2 := MakeBuilder().WithNumNodes(15).WithSeed(42).Build()

		Expect(err1).ToNot(HaveOccurred())
		Expect(err2).ToNot(HaveOccurred())
		Expect(g1.Edges()).To(Equal(g2.Edges()))
	})

	It("should reject a cap that needs more edges than pairs exist", func() {
		_, err := MakeBuilder().WithNumNodes(3).WithMaxDegree(3).Build()

		Expect(errors.Is(err, ErrGenerationFailed)).To(BeTrue())
	})

	It("should stop once the attempt budget is spent", func() {
		_, err := MakeBuilder().
			WithNumNodes(50).
			WithMaxDegree(4).
			WithMaxAttempts(10).
			WithRand(rand.New(rand.NewSource(5))).
			Build()

		Expect(errors.Is(err, ErrGenerationFailed)).To(BeTrue())
	})

	It("should reject negative parameters", func() {
		_, err := MakeBuilder().WithNumNodes(-1).Build()
		Expect(errors.Is(err, ErrInvalidParameters)).To(BeTrue())

		_, err = MakeBuilder().WithMaxDegree(-2).Build()
		Expect(errors.Is(err, ErrInvalidParameters)).To(BeTrue())
	})

	It("should place every edge of tight but satisfiable requests", func() {
		cases := []struct{ n, d int }{
			{9, 7}, {11, 9}, {20, 19}, {30, 27}, {30, 28}, {31, 29},
		}

		for _, c := range cases {
			for seed := int64(0); seed < 20; seed++ {
				g, err := MakeBuilder().
					WithNumNodes(c.n).
					WithMaxDegree(c.d).
					WithSeed(seed).
					Build()

				Expect(err).ToNot(HaveOccurred(),
					"n=%d d=%d seed=%d", c.n, c.d, seed)
				Expect(g.NumEdges()).To(Equal(c.n * c.d / 2))

				for _, node := range g.Nodes() {
					Expect(len(node.Neighbors())).To(
						BeNumerically("<=", c.d))
				}
			}
		}
	})

	It("should swap an edge to attach a lone node below the cap", func() {
		p := placement{
			graph:     newGraph(make([]Position, 4)),
			maxDegree: 2,
			degree:    make([]int, 4),
		}

		Expect(p.tryPair(0, 1)).To(BeTrue())
		Expect(p.tryPair(1, 2)).To(BeTrue())
		Expect(p.tryPair(2, 0)).To(BeTrue())
		Expect(p.candidates()).To(BeEmpty())

		Expect(p.complete(4, rand.New(rand.NewSource(1)))).To(BeTrue())

		Expect(p.graph.NumEdges()).To(Equal(4))
		Expect(p.degree).To(Equal([]int{2, 2, 2, 2}))
		Expect(p.graph.HasEdge(0, 1)).To(BeFalse())
		Expect(p.graph.HasEdge(3, 0)).To(BeTrue())
		Expect(p.graph.HasEdge(3, 1)).To(BeTrue())
	})

	It("should swap edges to attach two adjacent nodes below the cap", func() {
		p := placement{
			graph:     newGraph(make([]Position, 6)),
			maxDegree: 3,
			degree:    make([]int, 6),
		}

		for a := 0; a < 4; a++ {
			for b := a + 1; b < 4; b++ {
				Expect(p.tryPair(a, b)).To(BeTrue())
			}
		}
		Expect(p.tryPair(4, 5)).To(BeTrue())
		Expect(p.candidates()).To(BeEmpty())

		Expect(p.complete(9, rand.New(rand.NewSource(1)))).To(BeTrue())

		Expect(p.graph.NumEdges()).To(Equal(9))
		Expect(p.degree).To(Equal([]int{3, 3, 3, 3, 3, 3}))

		seen := make(map[Edge]bool)
		for _, e := range p.graph.Edges() {
			Expect(seen[e]).To(BeFalse())
			seen[e] = true
		}
	})

	It("should report a placement that cannot grow", func() {
		p := placement{
			graph:     newGraph(make([]Position, 3)),
			maxDegree: 2,
			degree:    make([]int, 3),
		}

		Expect(p.tryPair(0, 1)).To(BeTrue())
		Expect(p.tryPair(1, 2)).To(BeTrue())
		Expect(p.tryPair(2, 0)).To(BeTrue())

		Expect(p.complete(4, rand.New(rand.NewSource(1)))).To(BeFalse())
	})
})
