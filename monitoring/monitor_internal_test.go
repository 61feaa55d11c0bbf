package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gologme/log"
	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
	"github.com/sarchlab/floodsim/topology"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		ctrl     *MockController
		graph    *topology.Graph
		engine   *flooding.Engine
		m        *Monitor
	)

	serve := func(method, url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, url, nil)
		rec := httptest.NewRecorder()
		m.router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ctrl = NewMockController(mockCtrl)

		graph, _ = topology.FullMesh(3)
		engine = flooding.NewEngine(graph)

		ctrl.EXPECT().Graph().Return(graph).AnyTimes()
		ctrl.EXPECT().
			Inspect(gomock.Any()).
			Do(func(fn func(*flooding.Engine)) { fn(engine) }).
			AnyTimes()

		m = NewMonitor(ctrl).WithLogger(log.New(io.Discard, "", 0))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("progress bars", func() {
		It("should create and complete bars", func() {
			bar1 := m.CreateProgressBar("a", 10)
			bar2 := m.CreateProgressBar("b", 10)

			Expect(bar1.ID).NotTo(Equal(bar2.ID))
			Expect(m.ProgressBars()).To(HaveLen(2))

			m.CompleteProgressBar(bar1)

			Expect(m.ProgressBars()).To(ConsistOf(bar2))
		})

		It("should follow a flood", func() {
			engine.AcceptHook(m)
			b := flooding.Broadcast{Sequence: 1, Source: 0, TTL: 5}

			m.Func(hooking.HookCtx{
				Pos: flooding.HookPosBroadcastStart, Item: b,
			})
			engine.Enqueue(flooding.NewSeedPacket("x", 1, 5, 0))

			bars := m.ProgressBars()
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Name).To(Equal("Broadcast 1 from node 0"))
			Expect(bars[0].Total).To(Equal(uint64(3)))

			engine.Step()

			finished, inProgress := bars[0].Snapshot()
			Expect(finished).To(Equal(uint64(1)))
			Expect(inProgress).To(Equal(uint64(2)))

			for !engine.IsIdle() {
				engine.Step()
			}

			finished, inProgress = bars[0].Snapshot()
			Expect(finished).To(Equal(uint64(3)))
			Expect(inProgress).To(BeZero())

			m.Func(hooking.HookCtx{Pos: flooding.HookPosFloodEnd, Item: b})

			Expect(m.ProgressBars()).To(BeEmpty())
		})

		It("should drop the bar on reset", func() {
			m.Func(hooking.HookCtx{
				Pos:  flooding.HookPosBroadcastStart,
				Item: flooding.Broadcast{Sequence: 1},
			})
			m.Func(hooking.HookCtx{Pos: flooding.HookPosReset})

			Expect(m.ProgressBars()).To(BeEmpty())
		})

		It("should list bars as json", func() {
			m.CreateProgressBar("a", 5)

			rec := serve(http.MethodGet, "/api/progress")

			var bars []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0]["name"]).To(Equal("a"))
		})

		It("should list bars while a flood is being stepped", func() {
			mesh, _ := topology.FullMesh(40)
			meshEngine := flooding.NewEngine(mesh)
			meshEngine.AcceptHook(m)

			m.Func(hooking.HookCtx{
				Pos:  flooding.HookPosBroadcastStart,
				Item: flooding.Broadcast{Sequence: 1, Source: 0, TTL: 3},
			})
			meshEngine.Enqueue(flooding.NewSeedPacket("x", 1, 3, 0))

			stepped := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(stepped)

				for !meshEngine.IsIdle() {
					meshEngine.Step()
				}
			}()

			for i := 0; i < 200; i++ {
				rec := serve(http.MethodGet, "/api/progress")
				Expect(rec.Code).To(Equal(http.StatusOK))
			}

			<-stepped

			rec := serve(http.MethodGet, "/api/progress")

			var bars []map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0]["finished"]).To(BeNumerically("==", 40))
			Expect(bars[0]["in_progress"]).To(BeNumerically("==", 0))
		})
	})

	It("should report the topology with the reached nodes", func() {
		ctrl.EXPECT().Current().Return(flooding.Broadcast{Sequence: 1})
		engine.Enqueue(flooding.NewSeedPacket("x", 1, 5, 0))
		engine.Step()

		rec := serve(http.MethodGet, "/api/topology")

		Expect(rec.Code).To(Equal(http.StatusOK))

		rsp := topologyRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Nodes).To(HaveLen(3))
		Expect(rsp.Edges).To(HaveLen(3))
		Expect(rsp.Nodes[0].Received).To(BeTrue())
		Expect(rsp.Nodes[1].Received).To(BeFalse())
		Expect(rsp.Nodes[0].Neighbors).To(Equal([]int{1, 2}))
	})

	It("should report transfers with and without the seed", func() {
		transfers := []flooding.Transfer{
			{Sender: topology.NoNode, Receiver: 0},
			{Sender: 0, Receiver: 1},
		}
		ctrl.EXPECT().Transfers().Return(transfers).Times(2)

		var all, edges []flooding.Transfer

		rec := serve(http.MethodGet, "/api/transfers")
		Expect(json.Unmarshal(rec.Body.Bytes(), &all)).To(Succeed())
		Expect(all).To(Equal(transfers))

		rec = serve(http.MethodGet, "/api/transfers?edges=true")
		Expect(json.Unmarshal(rec.Body.Bytes(), &edges)).To(Succeed())
		Expect(edges).To(Equal(transfers[1:]))
	})

	It("should report the status", func() {
		b := flooding.Broadcast{Sequence: 2, Source: 1, Message: "m", TTL: 3}
		ctrl.EXPECT().Current().Return(b)
		ctrl.EXPECT().IsRunning().Return(true)
		engine.Enqueue(flooding.NewSeedPacket("m", 2, 3, 1))

		rec := serve(http.MethodGet, "/api/status")

		rsp := statusRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal(statusRsp{
			Broadcast: b,
			Running:   true,
			Idle:      false,
			Pending:   1,
		}))
	})

	It("should list pending packets", func() {
		seed := flooding.NewSeedPacket("m", 1, 3, 1)
		engine.Enqueue(seed)

		rec := serve(http.MethodGet, "/api/pending")

		var packets []flooding.Packet
		Expect(json.Unmarshal(rec.Body.Bytes(), &packets)).To(Succeed())
		Expect(packets).To(Equal([]flooding.Packet{seed}))
	})

	Context("broadcast", func() {
		It("should rebroadcast from a node", func() {
			ctrl.EXPECT().
				Rebroadcast(2, "Hello, Network!").
				Return(uint64(7), nil)

			rec := serve(http.MethodPost, "/api/broadcast/2")

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"sequence":7}`))
		})

		It("should pass the message", func() {
			ctrl.EXPECT().Rebroadcast(0, "hi").Return(uint64(1), nil)

			rec := serve(http.MethodPost, "/api/broadcast/0?message=hi")

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should reject a malformed node id", func() {
			rec := serve(http.MethodPost, "/api/broadcast/abc")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should report an invalid source", func() {
			ctrl.EXPECT().
				Rebroadcast(9, gomock.Any()).
				Return(uint64(0), errors.New("invalid broadcast source"))

			rec := serve(http.MethodPost, "/api/broadcast/9")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should rebroadcast at a point", func() {
			m.WithHitRadius(15)
			ctrl.EXPECT().
				RebroadcastAt(1.5, 2.0, 15.0, "Hello, Network!").
				Return(uint64(3), nil)

			rec := serve(http.MethodPost, "/api/broadcast_at?x=1.5&y=2")

			Expect(rec.Body.String()).To(MatchJSON(`{"sequence":3}`))
		})

		It("should reject missing coordinates", func() {
			rec := serve(http.MethodPost, "/api/broadcast_at?x=1")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("should step", func() {
		ctrl.EXPECT().Step().Return(flooding.StepResult{
			Outcome: flooding.OutcomeForwarded,
			Packet:  flooding.NewSeedPacket("m", 1, 5, 0),
			Spawned: 2,
		})

		rec := serve(http.MethodPost, "/api/step")

		rsp := stepRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Outcome).To(Equal("forwarded"))
		Expect(rsp.Spawned).To(Equal(2))
		Expect(rsp.Packet.Sender).To(Equal(topology.NoNode))
	})

	It("should reset", func() {
		ctrl.EXPECT().Reset()

		rec := serve(http.MethodPost, "/api/reset")

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	Context("node details", func() {
		It("should reject a malformed id", func() {
			rec := serve(http.MethodGet, "/api/node/x")

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should report a missing node", func() {
			rec := serve(http.MethodGet, "/api/node/3")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	It("should report resource usage", func() {
		rec := serve(http.MethodGet, "/api/resource")

		rsp := resourceRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the page", func() {
		rec := serve(http.MethodGet, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start and stop the server", func() {
		Expect(m.StartServer()).To(Succeed())
		Expect(m.Port()).To(BeNumerically(">", 0))

		rsp, err := http.Get(m.URL() + "/api/progress")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		Expect(m.StopServer(context.Background())).To(Succeed())
	})

	It("should fall back to a random port below 1000", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(BeZero())
	})

	It("should show warnings with the default logger", func() {
		buf := new(bytes.Buffer)
		m = NewMonitor(ctrl)
		m.logger.SetOutput(buf)

		m.WithPortNumber(80)

		Expect(buf.String()).To(ContainSubstring(
			"Port number 80 is assigned to the monitoring server"))
	})
})
