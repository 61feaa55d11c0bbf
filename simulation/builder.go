package simulation

import (
	"io"

	"github.com/gologme/log"
	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/datarecording"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/monitoring"
	"github.com/sarchlab/floodsim/sim/id"
	"github.com/sarchlab/floodsim/topology"
	"github.com/sarchlab/floodsim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	topology    topology.Builder
	graph       *topology.Graph
	initialTTL  int
	recordOn    bool
	outputPath  string
	recorder    datarecording.DataRecorder
	monitorOn   bool
	monitorPort int
	hitRadius   float64
	logger      *log.Logger
	publisher   tracing.Publisher
	feedChannel string
}

// MakeBuilder creates a new builder. By default the topology is generated
// with the defaults of topology.MakeBuilder, nothing is recorded and no
// monitor is started.
func MakeBuilder() Builder {
	return Builder{
		topology:   topology.MakeBuilder(),
		initialTTL: DefaultTTL,
		hitRadius:  monitoring.DefaultHitRadius,
	}
}

// WithTopology sets the generator used to build the graph.
func (b Builder) WithTopology(t topology.Builder) Builder {
	b.topology = t
	return b
}

// WithGraph sets a prebuilt graph. It takes precedence over WithTopology.
func (b Builder) WithGraph(g *topology.Graph) Builder {
	b.graph = g
	return b
}

// WithInitialTTL sets the hop budget of every broadcast.
func (b Builder) WithInitialTTL(ttl int) Builder {
	b.initialTTL = ttl
	return b
}

// WithRecording records broadcasts and deliveries into an SQLite file. An
// empty path lets the recorder pick a name from the simulation ID.
func (b Builder) WithRecording(path string) Builder {
	b.recordOn = true
	b.outputPath = path

	return b
}

// WithDataRecorder records into the given recorder instead of a new file.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recordOn = true
	b.recorder = r

	return b
}

// WithMonitor attaches an HTTP monitor. The server is not started until
// Monitor().StartServer is called.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithHitRadius sets how close a point must be to a node to select it.
func (b Builder) WithHitRadius(r float64) Builder {
	b.hitRadius = r
	return b
}

// WithFeed publishes every broadcast and delivery to the channel.
func (b Builder) WithFeed(p tracing.Publisher, channel string) Builder {
	b.publisher = p
	b.feedChannel = channel

	return b
}

// WithLogger sets the logger that receives the step log.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	g := b.graph
	if g == nil {
		var err error

		g, err = b.topology.Build()
		if err != nil {
			return nil, err
		}
	}

	engine := flooding.NewEngine(g)

	ctrl, err := NewController(engine, b.initialTTL)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:         id.NewGlobalIDGenerator().Generate(),
		engine:     engine,
		controller: ctrl,
		counter:    tracing.NewOutcomeCounter(),
		logger:     b.logger,
	}

	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}

	engine.AcceptHook(s.counter)

	stepLogger := tracing.NewStepLogger(s.logger)
	engine.AcceptHook(stepLogger)
	ctrl.AcceptHook(stepLogger)

	if b.recordOn {
		err = b.buildRecording(s)
		if err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		b.buildMonitor(s)
	}

	if b.publisher != nil {
		s.feed = tracing.NewFeedHook(b.publisher, b.feedChannel, s.logger)
		engine.AcceptHook(s.feed)
		ctrl.AcceptHook(s.feed)
	}

	return s, nil
}

func (b Builder) buildRecording(s *Simulation) error {
	s.dataRecorder = b.recorder

	if s.dataRecorder == nil {
		outputPath := b.outputPath
		if outputPath == "" {
			outputPath = "floodsim_" + s.id
		}

		recorder, err := datarecording.NewDataRecorder(outputPath)
		if err != nil {
			return errors.Wrap(err, "cannot create data recorder")
		}

		s.dataRecorder = recorder
	}

	s.transferTracer = tracing.NewTransferTracer(s.dataRecorder, s.id)
	s.engine.AcceptHook(s.transferTracer)
	s.controller.AcceptHook(s.transferTracer)

	return nil
}

func (b Builder) buildMonitor(s *Simulation) {
	s.monitor = monitoring.NewMonitor(s.controller).
		WithHitRadius(b.hitRadius).
		WithLogger(s.logger)

	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.engine.AcceptHook(s.monitor)
	s.controller.AcceptHook(s.monitor)
}
