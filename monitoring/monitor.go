// Package monitoring turns a flood simulation into a web server, so that the
// flood can be watched and driven from a browser.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/gologme/log"
	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/monitoring/web"
	"github.com/sarchlab/floodsim/sim/hooking"
	"github.com/sarchlab/floodsim/sim/id"
	"github.com/sarchlab/floodsim/topology"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// DefaultHitRadius is how close a click must be to a node to select it.
const DefaultHitRadius = 10.0

// A Controller is the part of a simulation the monitor drives.
type Controller interface {
	Graph() *topology.Graph
	Inspect(fn func(e *flooding.Engine))
	Rebroadcast(source int, message string) (uint64, error)
	RebroadcastAt(x, y, radius float64, message string) (uint64, error)
	Step() flooding.StepResult
	Reset()
	IsRunning() bool
	Current() flooding.Broadcast
	Transfers() []flooding.Transfer
}

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the flood.
type Monitor struct {
	ctrl       Controller
	portNumber int
	hitRadius  float64
	message    string
	logger     *log.Logger
	idGen      id.IDGenerator

	server   *http.Server
	listener net.Listener

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	floodBar         *ProgressBar
}

// NewMonitor creates a new Monitor that drives the controller.
func NewMonitor(ctrl Controller) *Monitor {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	logger.EnableLevel("error")
	logger.EnableLevel("warn")

	return &Monitor{
		ctrl:      ctrl,
		hitRadius: DefaultHitRadius,
		message:   flooding.DefaultMessage,
		logger:    logger,
		idGen:     id.NewIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		m.logger.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithHitRadius sets the radius used by the broadcast-at-point endpoint.
func (m *Monitor) WithHitRadius(r float64) *Monitor {
	m.hitRadius = r
	return m
}

// WithMessage sets the message of broadcasts started from the web page.
func (m *Monitor) WithMessage(msg string) *Monitor {
	m.message = msg
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *log.Logger) *Monitor {
	m.logger = logger
	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// ProgressBars returns the bars currently shown.
func (m *Monitor) ProgressBars() []*ProgressBar {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, len(m.progressBars))
	copy(bars, m.progressBars)

	return bars
}

// Func keeps one progress bar per flood. The bar counts the nodes reached
// and the packets still queued.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case flooding.HookPosBroadcastStart:
		m.closeFloodBar()

		b := ctx.Item.(flooding.Broadcast)
		name := fmt.Sprintf("Broadcast %d from node %d", b.Sequence, b.Source)
		total := uint64(m.ctrl.Graph().NumNodes())
		m.floodBar = m.CreateProgressBar(name, total)
		m.floodBar.SetInProgress(1)
	case flooding.HookPosAfterStep:
		if m.floodBar == nil {
			return
		}

		result := ctx.Detail.(flooding.StepResult)
		if result.Outcome.Delivered() {
			m.floodBar.IncrementFinished(1)
		}

		if engine, ok := ctx.Domain.(*flooding.Engine); ok {
			m.floodBar.SetInProgress(uint64(engine.QueueLen()))
		}
	case flooding.HookPosFloodEnd, flooding.HookPosReset:
		m.closeFloodBar()
	}
}

func (m *Monitor) closeFloodBar() {
	if m.floodBar == nil {
		return
	}

	m.CompleteProgressBar(m.floodBar)
	m.floodBar = nil
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/topology", m.topology).Methods(http.MethodGet)
	r.HandleFunc("/api/transfers", m.transfers).Methods(http.MethodGet)
	r.HandleFunc("/api/status", m.status).Methods(http.MethodGet)
	r.HandleFunc("/api/pending", m.pending).Methods(http.MethodGet)
	r.HandleFunc("/api/node/{id}", m.nodeDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/broadcast/{id}", m.broadcast).Methods(http.MethodPost)
	r.HandleFunc("/api/broadcast_at", m.broadcastAt).Methods(http.MethodPost)
	r.HandleFunc("/api/step", m.step).Methods(http.MethodPost)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return errors.Wrap(err, "cannot start monitoring server")
	}

	server := &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.listener = listener
	m.server = server

	m.logger.Infof("Monitoring simulation with %s", m.URL())

	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	return nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	err := m.server.Shutdown(ctx)
	m.server = nil

	return err
}

// Port returns the port the server listens on, zero if it is not running.
func (m *Monitor) Port() int {
	if m.listener == nil {
		return 0
	}

	return m.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the address of the web page.
func (m *Monitor) URL() string {
	return fmt.Sprintf("http://localhost:%d", m.Port())
}

// OpenBrowser opens the web page in the default browser.
func (m *Monitor) OpenBrowser() error {
	return browser.OpenURL(m.URL())
}

type nodeRsp struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Neighbors []int   `json:"neighbors"`
	Received  bool    `json:"received"`
}

type edgeRsp struct {
	A int `json:"a"`
	B int `json:"b"`
}

type topologyRsp struct {
	Nodes []nodeRsp `json:"nodes"`
	Edges []edgeRsp `json:"edges"`
}

func (m *Monitor) topology(w http.ResponseWriter, _ *http.Request) {
	rsp := topologyRsp{
		Nodes: []nodeRsp{},
		Edges: []edgeRsp{},
	}

	seq := m.ctrl.Current().Sequence

	m.ctrl.Inspect(func(e *flooding.Engine) {
		for _, n := range e.Graph().Nodes() {
			pos := n.Position()
			rsp.Nodes = append(rsp.Nodes, nodeRsp{
				ID:        n.ID(),
				X:         pos.X,
				Y:         pos.Y,
				Neighbors: n.Neighbors(),
				Received:  seq > 0 && n.HasReceived(seq),
			})
		}

		for _, edge := range e.Graph().Edges() {
			rsp.Edges = append(rsp.Edges, edgeRsp{A: edge.A, B: edge.B})
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) transfers(w http.ResponseWriter, r *http.Request) {
	transfers := m.ctrl.Transfers()

	if r.URL.Query().Get("edges") == "true" {
		edges := make([]flooding.Transfer, 0, len(transfers))
		for _, t := range transfers {
			if t.Sender != topology.NoNode {
				edges = append(edges, t)
			}
		}

		transfers = edges
	}

	if transfers == nil {
		transfers = []flooding.Transfer{}
	}

	writeJSON(w, transfers)
}

type statusRsp struct {
	Broadcast flooding.Broadcast `json:"broadcast"`
	Running   bool               `json:"running"`
	Idle      bool               `json:"idle"`
	Pending   int                `json:"pending"`
	NumSteps  uint64             `json:"num_steps"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{}

	m.ctrl.Inspect(func(e *flooding.Engine) {
		rsp.Idle = e.IsIdle()
		rsp.Pending = e.QueueLen()
		rsp.NumSteps = e.NumSteps()
	})

	rsp.Broadcast = m.ctrl.Current()
	rsp.Running = m.ctrl.IsRunning()

	writeJSON(w, rsp)
}

func (m *Monitor) pending(w http.ResponseWriter, _ *http.Request) {
	var packets []flooding.Packet

	m.ctrl.Inspect(func(e *flooding.Engine) {
		packets = e.Pending()
	})

	if packets == nil {
		packets = []flooding.Packet{}
	}

	writeJSON(w, packets)
}

func (m *Monitor) nodeDetails(w http.ResponseWriter, r *http.Request) {
	nodeID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid node id", http.StatusBadRequest)
		return
	}

	node, ok := m.ctrl.Graph().Node(nodeID)
	if !ok {
		http.Error(w, "Node not found", http.StatusNotFound)
		return
	}

	m.ctrl.Inspect(func(_ *flooding.Engine) {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(node)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(w)
	})

	dieOnErr(err)
}

type broadcastRsp struct {
	Sequence uint64 `json:"sequence"`
}

func (m *Monitor) messageOf(r *http.Request) string {
	msg := r.URL.Query().Get("message")
	if msg == "" {
		msg = m.message
	}

	return msg
}

func (m *Monitor) broadcast(w http.ResponseWriter, r *http.Request) {
	source, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid node id", http.StatusBadRequest)
		return
	}

	seq, err := m.ctrl.Rebroadcast(source, m.messageOf(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, broadcastRsp{Sequence: seq})
}

func (m *Monitor) broadcastAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)

	if errX != nil || errY != nil {
		http.Error(w, "Invalid coordinates", http.StatusBadRequest)
		return
	}

	seq, err := m.ctrl.RebroadcastAt(x, y, m.hitRadius, m.messageOf(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, broadcastRsp{Sequence: seq})
}

type stepRsp struct {
	Outcome string          `json:"outcome"`
	Packet  flooding.Packet `json:"packet"`
	Spawned int             `json:"spawned"`
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	result := m.ctrl.Step()

	writeJSON(w, stepRsp{
		Outcome: result.Outcome.String(),
		Packet:  result.Packet,
		Spawned: result.Spawned,
	})
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	m.ctrl.Reset()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	bars := m.ProgressBars()

	rsp := make([]progressBarRsp, 0, len(bars))
	for _, b := range bars {
		rsp = append(rsp, b.rsp())
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
