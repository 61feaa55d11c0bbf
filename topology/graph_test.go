package topology

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Graph", func() {
	It("should normalize edges", func() {
		e, ok := NewEdge(4, 2)

		Expect(ok).To(BeTrue())
		Expect(e).To(Equal(Edge{A: 2, B: 4}))
		Expect(e.Other(2)).To(Equal(4))
		Expect(e.String()).To(Equal("2-4"))

		_, ok = NewEdge(3, 3)
		Expect(ok).To(BeFalse())
	})

	It("should build from an explicit edge list", func() {
		g, err := FromEdges(4, [][2]int{{0, 1}, {2, 1}, {3, 0}})

		Expect(err).ToNot(HaveOccurred())
		Expect(g.HasEdge(1, 2)).To(BeTrue())
		Expect(g.HasEdge(2, 1)).To(BeTrue())
		Expect(g.HasEdge(2, 3)).To(BeFalse())

		n0, _ := g.Node(0)
		Expect(n0.Neighbors()).To(Equal([]int{1, 3}))
	})

	It("should reject bad edge lists", func() {
		_, err := FromEdges(3, [][2]int{{0, 0}})
		Expect(errors.Is(err, ErrInvalidParameters)).To(BeTrue())

		_, err = FromEdges(3, [][2]int{{0, 1}, {1, 0}})
		Expect(errors.Is(err, ErrInvalidParameters)).To(BeTrue())

		_, err = FromEdges(3, [][2]int{{0, 3}})
		Expect(errors.Is(err, ErrInvalidParameters)).To(BeTrue())
	})

	It("should build a full mesh", func() {
		g, err := FullMesh(4)

		Expect(err).ToNot(HaveOccurred())
		Expect(g.NumEdges()).To(Equal(6))
		for _, n := range g.Nodes() {
			Expect(n.Degree()).To(Equal(3))
		}
	})

	It("should build a line", func() {
		g, err := Line(5)

		Expect(err).ToNot(HaveOccurred())
		Expect(g.Edges()).To(Equal([]Edge{
			{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 4},
		}))
	})

	It("should report missing nodes", func() {
		g, _ := Line(2)

		_, ok := g.Node(2)
		Expect(ok).To(BeFalse())
		_, ok = g.Node(-1)
		Expect(ok).To(BeFalse())
	})

	It("should find a node by point", func() {
		g, _ := FromEdges(2, nil)
		n0, _ := g.Node(0)
		pos := n0.Position()

		found, ok := g.NodeAt(pos.X+6, pos.Y+8, 10)
		Expect(ok).To(BeTrue())
		Expect(found.ID()).To(Equal(0))

		_, ok = g.NodeAt(pos.X+6, pos.Y+8.1, 10)
		Expect(ok).To(BeFalse())
	})

	It("should track receipts per node", func() {
		g, _ := Line(2)
		n, _ := g.Node(1)

		Expect(n.Receive(3)).To(BeTrue())
		Expect(n.Receive(3)).To(BeFalse())
		Expect(n.Receive(1)).To(BeTrue())
		Expect(n.Received()).To(Equal([]uint64{1, 3}))

		g.ClearReceipts()

		Expect(n.HasReceived(3)).To(BeFalse())
		Expect(n.Received()).To(BeEmpty())
	})
})
