// Package simulation owns the state of one flood simulation: the sequence
// counter, the running flag and the collaborators observing the flood.
package simulation

import (
	"context"

	"github.com/gologme/log"
	"github.com/sarchlab/floodsim/datarecording"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/monitoring"
	"github.com/sarchlab/floodsim/topology"
	"github.com/sarchlab/floodsim/tracing"
)

// A Simulation groups a controller with the tracers, the recorder and the
// monitor built around it.
type Simulation struct {
	id         string
	engine     *flooding.Engine
	controller *Controller
	logger     *log.Logger

	dataRecorder   datarecording.DataRecorder
	transferTracer *tracing.TransferTracer
	counter        *tracing.OutcomeCounter
	monitor        *monitoring.Monitor
	feed           *tracing.FeedHook
}

// ID returns the unique identifier of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Controller returns the controller of the simulation.
func (s *Simulation) Controller() *Controller {
	return s.controller
}

// Graph returns the graph the simulation floods over.
func (s *Simulation) Graph() *topology.Graph {
	return s.engine.Graph()
}

// GetDataRecorder returns the data recorder, nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetOutcomeCounter returns the counter of step outcomes.
func (s *Simulation) GetOutcomeCounter() *tracing.OutcomeCounter {
	return s.counter
}

// Logger returns the logger of the simulation.
func (s *Simulation) Logger() *log.Logger {
	return s.logger
}

// Terminate flushes the feed, stops the monitoring server and closes the
// data recorder.
func (s *Simulation) Terminate() error {
	if s.feed != nil {
		s.feed.Close()
	}

	if s.monitor != nil {
		err := s.monitor.StopServer(context.Background())
		if err != nil {
			return err
		}
	}

	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}
