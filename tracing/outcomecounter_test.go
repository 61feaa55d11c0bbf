package tracing

import (
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/topology"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OutcomeCounter", func() {
	It("should count step outcomes", func() {
		g, _ := topology.FullMesh(4)
		engine := flooding.NewEngine(g)
		counter := NewOutcomeCounter()
		engine.AcceptHook(counter)

		engine.Enqueue(flooding.NewSeedPacket("x", 1, 2, 0))
		for !engine.IsIdle() {
			engine.Step()
		}
		engine.Step()

		Expect(counter.GetOutcomeNames()).To(Equal([]string{
			"forwarded", "expired",
		}))
		Expect(counter.GetCount(flooding.OutcomeForwarded)).To(Equal(uint64(1)))
		Expect(counter.GetCount(flooding.OutcomeExpired)).To(Equal(uint64(3)))
		Expect(counter.GetCount(flooding.OutcomeIdle)).To(BeZero())
		Expect(counter.Total()).To(Equal(uint64(4)))
	})
})
