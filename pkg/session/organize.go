package session

import (
	"time"

	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/layout"
	"github.com/matzehuels/nodecanvas/pkg/observability"
	"github.com/matzehuels/nodecanvas/pkg/scene"
)

// organizeRun is a force layout stepped across frames. Intermediate
// arrangements are previewed in the scene only; the store sees a single
// ApplyPositions when the simulation finishes.
type organizeRun struct {
	sim    *layout.Simulation
	handle scene.FrameHandle
	nodes  int
	start  time.Time
}

// StartOrganize begins a force layout that advances stepsPerFrame
// iterations on every frame. A running layout is restarted from the
// current positions. It reports false for an empty diagram.
func (s *Session) StartOrganize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.startOrganize()
}

func (s *Session) startOrganize() bool {
	s.cancelOrganize()
	d := s.store.Snapshot()
	if len(d.Nodes) == 0 {
		return false
	}
	run := &organizeRun{
		sim:   layout.NewSimulation(d, s.layoutCfg),
		nodes: len(d.Nodes),
		start: time.Now(),
	}
	s.organize = run
	observability.Layout().OnLayoutStart("force", run.nodes)
	run.handle = s.host.Surface().RequestFrame(func(time.Time) { s.stepOrganize(run) })
	s.logger.Debug("organize started", "nodes", run.nodes, "steps_per_frame", s.stepsPerFrame)
	return true
}

// stepOrganize runs one frame's worth of iterations. It is called from the
// surface frame loop, which Pump drives under the session lock.
func (s *Session) stepOrganize(run *organizeRun) {
	if s.organize != run {
		return
	}
	if !run.sim.Step(s.stepsPerFrame) {
		if err := s.renderer.RenderGraph(run.sim.Result()); err != nil {
			s.logger.Warn("organize preview", "error", err)
		}
		run.handle = s.host.Surface().RequestFrame(func(time.Time) { s.stepOrganize(run) })
		return
	}
	s.organize = nil
	observability.Layout().OnLayoutComplete("force", run.nodes, time.Since(run.start))
	if !s.store.ApplyPositions(positionsOf(run.sim.Result())) {
		// No movement means no store event, so restore the scene.
		if err := s.renderer.RenderGraph(s.store.Snapshot()); err != nil {
			s.logger.Warn("organize restore", "error", err)
		}
	}
	s.logger.Debug("organize finished", "nodes", run.nodes, "duration", time.Since(run.start))
}

// CancelOrganize stops a running layout. Positions already previewed are
// discarded and the scene returns to the stored diagram. It reports whether
// a layout was running.
func (s *Session) CancelOrganize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.organize == nil || s.closed {
		return false
	}
	s.cancelOrganize()
	if err := s.renderer.RenderGraph(s.store.Snapshot()); err != nil {
		s.logger.Warn("organize restore", "error", err)
	}
	return true
}

func (s *Session) cancelOrganize() {
	if s.organize == nil {
		return
	}
	s.host.Surface().CancelFrame(s.organize.handle)
	s.organize = nil
}

// Organizing reports whether a layout is in progress and its progress.
func (s *Session) Organizing() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.organize == nil {
		return false, 0
	}
	return true, s.organize.sim.Progress()
}

func positionsOf(d graph.Data) map[string]graph.Vec {
	pos := make(map[string]graph.Vec, len(d.Nodes))
	for _, n := range d.Nodes {
		pos[n.ID] = n.Position
	}
	return pos
}
