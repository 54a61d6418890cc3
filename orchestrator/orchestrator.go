// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package orchestrator runs the distributed coverage loop:
//
//	COMPUTE_PARTITION -> EXCHANGE_PUBLISH -> EXCHANGE_FETCH -> COMPUTE_CONTROL -> INTEGRATE_DYNAMICS
//
// Per-agent work inside a state runs in parallel and every state ends with a barrier.
// Any failure aborts the iteration and the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	pkgerrors "github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/2dChan/cvtcoverage"
	"github.com/2dChan/cvtcoverage/agent"
	"github.com/2dChan/cvtcoverage/exchange"
	"github.com/2dChan/cvtcoverage/logging"
	"github.com/2dChan/cvtcoverage/lyapunov"
	"github.com/2dChan/cvtcoverage/region"
	"github.com/2dChan/cvtcoverage/sensitivity"
)

// Orchestrator owns the agents, the transport and the SimulationState.
type Orchestrator struct {
	region      *region.Region
	constraints []region.HalfPlane
	agents      []agent.Agent
	params      lyapunov.Params
	dt          float64

	transport     exchange.Transport
	engine        *sensitivity.Engine
	partitionOpts []cvtcoverage.PartitionOption
	logger        logging.Logger
	clock         clock.Clock
	parallelism   int
	sink          func(Snapshot) error

	state SimulationState
}

type Option func(*Orchestrator) error

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) error {
		if l == nil {
			return errors.New("WithLogger: nil logger")
		}
		o.logger = l
		return nil
	}
}

// WithClock sets the clock used for snapshot times and, for the default transport,
// report timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) error {
		if c == nil {
			return errors.New("WithClock: nil clock")
		}
		o.clock = c
		return nil
	}
}

// WithParallelism limits the number of agents processed at once.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return errors.New("WithParallelism: at least one worker is required")
		}
		o.parallelism = n
		return nil
	}
}

// WithTransport replaces the in-process exchange bus.
func WithTransport(t exchange.Transport) Option {
	return func(o *Orchestrator) error {
		if t == nil {
			return errors.New("WithTransport: nil transport")
		}
		o.transport = t
		return nil
	}
}

// WithSensitivityEngine sets the engine computing centroid Jacobians.
func WithSensitivityEngine(e *sensitivity.Engine) Option {
	return func(o *Orchestrator) error {
		if e == nil {
			return errors.New("WithSensitivityEngine: nil engine")
		}
		o.engine = e
		return nil
	}
}

// WithPartitionOptions sets the options passed to every partition computation.
func WithPartitionOptions(opts ...cvtcoverage.PartitionOption) Option {
	return func(o *Orchestrator) error {
		o.partitionOpts = opts
		return nil
	}
}

// WithSnapshotSink registers a function called with every completed iteration. An
// error from the sink aborts the run.
func WithSnapshotSink(sink func(Snapshot) error) Option {
	return func(o *Orchestrator) error {
		o.sink = sink
		return nil
	}
}

// New returns an Orchestrator for agents in reg. Agent i must report ID i.
func New(reg *region.Region, agents []agent.Agent, params lyapunov.Params, dt float64, setters ...Option) (*Orchestrator, error) {
	if reg == nil {
		return nil, errors.New("orchestrator: nil region")
	}
	if len(agents) == 0 {
		return nil, errors.New("orchestrator: at least one agent is required")
	}
	for i, a := range agents {
		if a.ID() != i {
			return nil, fmt.Errorf("orchestrator: agent at index %d has id %d", i, a.ID())
		}
	}
	if dt <= 0 {
		return nil, fmt.Errorf("orchestrator: dt %g must be positive", dt)
	}
	if err := params.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "orchestrator")
	}

	o := &Orchestrator{
		region:      reg,
		constraints: reg.Constraints(),
		agents:      agents,
		params:      params,
		dt:          dt,
		logger:      logging.NewNopLogger(),
		clock:       clock.New(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, set := range setters {
		if err := set(o); err != nil {
			return nil, err
		}
	}
	if o.engine == nil {
		o.engine, _ = sensitivity.New()
	}
	if o.transport == nil {
		o.transport = exchange.NewBus(exchange.WithClock(o.clock))
	}
	o.state = newSimulationState(0, len(agents))
	return o, nil
}

// State returns the state of the last iteration.
func (o *Orchestrator) State() SimulationState {
	return o.state
}

// Run executes iterations until the count is reached, ctx is cancelled or an iteration
// fails. Cancellation is observed before each COMPUTE_PARTITION.
func (o *Orchestrator) Run(ctx context.Context, iterations int) error {
	for range iterations {
		if err := ctx.Err(); err != nil {
			o.logger.Infow("run cancelled", "iteration", o.state.Iteration)
			return err
		}
		if _, err := o.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one full iteration and returns its snapshot.
func (o *Orchestrator) Step(ctx context.Context) (Snapshot, error) {
	o.state = newSimulationState(o.state.Iteration+1, len(o.agents))

	steps := []func(context.Context) error{
		StateComputePartition:  o.computePartition,
		StateExchangePublish:   o.publish,
		StateExchangeFetch:     o.fetch,
		StateComputeControl:    o.computeControl,
		StateIntegrateDynamics: o.integrate,
	}
	var snap Snapshot
	for s := StateComputePartition; ; s = s.Next() {
		o.state.State = s
		o.logger.Debugw("state", "iteration", o.state.Iteration, "state", s)
		if s == StateIntegrateDynamics {
			snap = o.snapshot()
		}
		if err := steps[s](ctx); err != nil {
			o.logger.Errorw("iteration failed", "iteration", o.state.Iteration, "state", s, "error", err)
			return Snapshot{}, pkgerrors.Wrapf(err, "iteration %d: %v", o.state.Iteration, s)
		}
		if s == StateIntegrateDynamics {
			break
		}
	}

	o.logger.Infow("iteration complete",
		"iteration", snap.Iteration,
		"maxV", snap.MaxV(),
		"meanGrad", snap.MeanGradientNorm())
	if o.sink != nil {
		if err := o.sink(snap); err != nil {
			return Snapshot{}, pkgerrors.Wrapf(err, "iteration %d: snapshot sink", snap.Iteration)
		}
	}
	return snap, nil
}

func (o *Orchestrator) computePartition(ctx context.Context) error {
	o.state.Generators = lo.Map(o.agents, func(a agent.Agent, _ int) r2.Point {
		return a.Generator()
	})
	p, err := cvtcoverage.NewPartition(o.state.Generators, o.region, o.partitionOpts...)
	if err != nil {
		return err
	}
	o.state.Partition = p

	return o.forEachAgent(ctx, func(i int) error {
		c, err := p.Cell(i)
		if err != nil {
			return err
		}
		res, err := o.engine.Compute(c)
		if err != nil {
			return err
		}
		o.state.Sensitivities[i] = res
		return nil
	})
}

func (o *Orchestrator) publish(ctx context.Context) error {
	round := o.state.Iteration
	if err := o.transport.BeginRound(round); err != nil {
		return err
	}
	err := o.forEachAgent(ctx, func(i int) error {
		res := o.state.Sensitivities[i]
		for _, n := range res.Neighbors {
			err := o.transport.Publish(exchange.SensitivityReport{
				Round:       round,
				PublisherID: i,
				ReceiverID:  n.NeighborID,
				Generator:   res.Generator,
				Centroid:    res.Centroid,
				DCiDzj:      n.DCiDzj,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Every publish has returned; seal before any fetch.
	return o.transport.Seal()
}

func (o *Orchestrator) fetch(ctx context.Context) error {
	return o.forEachAgent(ctx, func(i int) error {
		c, err := o.state.Partition.Cell(i)
		if err != nil {
			return err
		}
		reports, err := o.transport.Fetch(i, c.NeighborIndices())
		if err != nil {
			return err
		}
		o.state.Inbox[i] = reports
		return nil
	})
}

func (o *Orchestrator) computeControl(ctx context.Context) error {
	return o.forEachAgent(ctx, func(i int) error {
		res := o.state.Sensitivities[i]
		ev, err := lyapunov.Evaluate(i, res.Generator, res.Centroid, res.Self, o.constraints, o.params.Q)
		if err != nil {
			return err
		}

		contributions := make([]r2.Point, 0, len(o.state.Inbox[i]))
		for _, r := range o.state.Inbox[i] {
			g, err := lyapunov.NeighborContribution(r.PublisherID, r.Generator, r.Centroid, r.DCiDzj, o.constraints, o.params.Q)
			if err != nil {
				return err
			}
			contributions = append(contributions, g)
		}
		grad := lyapunov.Aggregate(ev.Grad, contributions...)

		o.state.Evaluations[i] = ev
		o.state.Gradients[i] = grad
		o.state.Commands[i] = o.agents[i].Control(grad, o.params)
		return nil
	})
}

func (o *Orchestrator) integrate(ctx context.Context) error {
	return o.forEachAgent(ctx, func(i int) error {
		return o.agents[i].Move(o.dt)
	})
}

// forEachAgent calls fn for every agent index in parallel and waits for all of them.
func (o *Orchestrator) forEachAgent(ctx context.Context, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i := range o.agents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) snapshot() Snapshot {
	p := o.state.Partition
	cells := make([][]r2.Point, p.NumCells())
	neighbors := make([][]int, p.NumCells())
	for i := range p.NumCells() {
		c, _ := p.Cell(i)
		cells[i] = c.Polygon()
		neighbors[i] = c.NeighborIndices()
	}
	return Snapshot{
		Iteration:  o.state.Iteration,
		Time:       o.clock.Now(),
		Poses:      lo.Map(o.agents, func(a agent.Agent, _ int) agent.Pose { return a.Pose() }),
		Generators: o.state.Generators,
		Centroids: lo.Map(o.state.Sensitivities, func(r sensitivity.Result, _ int) r2.Point {
			return r.Centroid
		}),
		V: lo.Map(o.state.Evaluations, func(e lyapunov.Evaluation, _ int) float64 {
			return e.V
		}),
		Gradients: o.state.Gradients,
		Commands:  o.state.Commands,
		Cells:     cells,
		Neighbors: neighbors,
	}
}
