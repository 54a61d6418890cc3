// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package config reads the YAML description of a coverage run and builds the region,
// the agents and the orchestrator options from it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r2"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/2dChan/cvtcoverage"
	"github.com/2dChan/cvtcoverage/agent"
	"github.com/2dChan/cvtcoverage/lyapunov"
	"github.com/2dChan/cvtcoverage/orchestrator"
	"github.com/2dChan/cvtcoverage/region"
	"github.com/2dChan/cvtcoverage/sensitivity"
	"github.com/2dChan/cvtcoverage/utils"
)

const (
	ModelUnicycle         = "unicycle"
	ModelSingleIntegrator = "single_integrator"
)

type Config struct {
	Bounds     RegionConfig     `yaml:"region"`
	Fleet      AgentsConfig     `yaml:"agents"`
	Control    ControlConfig    `yaml:"control"`
	Simulation SimulationConfig `yaml:"simulation"`
	Partition  PartitionConfig  `yaml:"partition"`
}

// RegionConfig is given either as polygon vertices [x, y] or as half-plane rows [a0, a1, c]
// meaning a0·x + a1·y <= c.
type RegionConfig struct {
	Vertices    [][]float64 `yaml:"vertices,omitempty"`
	Constraints [][]float64 `yaml:"constraints,omitempty"`
}

type AgentsConfig struct {
	Model string `yaml:"model"`
	// Poses are [x, y, theta] rows. Random is used when no pose is given.
	Poses  [][]float64 `yaml:"poses,omitempty"`
	Random *Random     `yaml:"random,omitempty"`

	// Unicycle.
	Speed     float64 `yaml:"speed,omitempty"`
	OrbitRate float64 `yaml:"orbit_rate,omitempty"`
	MaxRate   float64 `yaml:"max_rate,omitempty"`

	// Single integrator.
	Gain     float64 `yaml:"gain,omitempty"`
	MaxSpeed float64 `yaml:"max_speed,omitempty"`
}

type Random struct {
	Count int   `yaml:"count"`
	Seed  int64 `yaml:"seed"`
}

type ControlConfig struct {
	Q     [][]float64 `yaml:"q"`
	Gamma float64     `yaml:"gamma"`
	Eps   float64     `yaml:"eps"`
}

type SimulationConfig struct {
	Dt          float64 `yaml:"dt"`
	Iterations  int     `yaml:"iterations"`
	Parallelism int     `yaml:"parallelism,omitempty"`
}

type PartitionConfig struct {
	MergeEps        float64 `yaml:"merge_eps,omitempty"`
	BoundarySlack   float64 `yaml:"boundary_slack,omitempty"`
	FarPointFactor  float64 `yaml:"far_point_factor,omitempty"`
	QuadratureNodes int     `yaml:"quadrature_nodes,omitempty"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "config file %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML config. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem of the config at once.
func (c *Config) Validate() error {
	var err error

	switch {
	case len(c.Bounds.Vertices) > 0 && len(c.Bounds.Constraints) > 0:
		err = multierr.Append(err, errors.New("region: vertices and constraints are mutually exclusive"))
	case len(c.Bounds.Vertices) > 0:
		err = multierr.Append(err, checkRows("region.vertices", c.Bounds.Vertices, 2))
	case len(c.Bounds.Constraints) > 0:
		err = multierr.Append(err, checkRows("region.constraints", c.Bounds.Constraints, 3))
	default:
		err = multierr.Append(err, errors.New("region: vertices or constraints are required"))
	}

	a := c.Fleet
	switch a.Model {
	case ModelUnicycle:
		if a.Speed <= 0 {
			err = multierr.Append(err, errors.New("agents.speed must be positive"))
		}
		if a.OrbitRate == 0 {
			err = multierr.Append(err, errors.New("agents.orbit_rate must be non-zero"))
		}
		if a.MaxRate < 0 {
			err = multierr.Append(err, errors.New("agents.max_rate must be non-negative"))
		}
	case ModelSingleIntegrator:
		if a.Gain < 0 {
			err = multierr.Append(err, errors.New("agents.gain must be non-negative"))
		}
		if a.MaxSpeed < 0 {
			err = multierr.Append(err, errors.New("agents.max_speed must be non-negative"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("agents.model %q is not %q or %q", a.Model, ModelUnicycle, ModelSingleIntegrator))
	}
	switch {
	case len(a.Poses) > 0 && a.Random != nil:
		err = multierr.Append(err, errors.New("agents: poses and random are mutually exclusive"))
	case len(a.Poses) > 0:
		err = multierr.Append(err, checkRows("agents.poses", a.Poses, 3))
	case a.Random != nil:
		if a.Random.Count < 1 {
			err = multierr.Append(err, errors.New("agents.random.count must be positive"))
		}
	default:
		err = multierr.Append(err, errors.New("agents: poses or random are required"))
	}

	if q := c.Control.Q; len(q) != 2 || len(q[0]) != 2 || len(q[1]) != 2 {
		err = multierr.Append(err, errors.New("control.q must be a 2x2 matrix"))
	} else {
		err = multierr.Append(err, c.Params().Validate())
	}

	if c.Simulation.Dt <= 0 {
		err = multierr.Append(err, errors.New("simulation.dt must be positive"))
	}
	if c.Simulation.Iterations < 0 {
		err = multierr.Append(err, errors.New("simulation.iterations must be non-negative"))
	}
	if c.Simulation.Parallelism < 0 {
		err = multierr.Append(err, errors.New("simulation.parallelism must be non-negative"))
	}

	err = multierr.Append(err, validateOptions(c.PartitionOptions()))
	if n := c.Partition.QuadratureNodes; n != 0 {
		_, qerr := sensitivity.New(sensitivity.WithQuadratureNodes(n))
		err = multierr.Append(err, qerr)
	}
	return err
}

// Region builds the coverage region.
func (c *Config) Region() (*region.Region, error) {
	if len(c.Bounds.Constraints) > 0 {
		hp := make([]region.HalfPlane, len(c.Bounds.Constraints))
		for i, row := range c.Bounds.Constraints {
			hp[i] = region.HalfPlane{A: r2.Point{X: row[0], Y: row[1]}, C: row[2]}
		}
		return region.FromConstraints(hp)
	}
	vertices := make([]r2.Point, len(c.Bounds.Vertices))
	for i, row := range c.Bounds.Vertices {
		vertices[i] = r2.Point{X: row[0], Y: row[1]}
	}
	return region.New(vertices)
}

// Agents builds the agents. Random unicycles are placed so that their virtual masses,
// not their poses, are uniformly distributed in reg.
func (c *Config) Agents(reg *region.Region) ([]agent.Agent, error) {
	poses := make([]agent.Pose, 0, len(c.Fleet.Poses))
	for _, row := range c.Fleet.Poses {
		poses = append(poses, agent.Pose{X: row[0], Y: row[1], Theta: row[2]})
	}
	if r := c.Fleet.Random; r != nil && len(poses) == 0 {
		points := utils.GenerateRandomPointsIn(r.Count, r.Seed, reg.Bound(), reg)
		if len(points) < r.Count {
			return nil, fmt.Errorf("config: placed %d of %d random agents", len(points), r.Count)
		}
		for _, p := range points {
			// Heading east puts the virtual mass v/w0 above the pose.
			offset := 0.0
			if c.Fleet.Model == ModelUnicycle {
				offset = c.Fleet.Speed / c.Fleet.OrbitRate
			}
			poses = append(poses, agent.Pose{X: p.X, Y: p.Y - offset})
		}
	}

	agents := make([]agent.Agent, len(poses))
	for i, p := range poses {
		var (
			a   agent.Agent
			err error
		)
		switch c.Fleet.Model {
		case ModelUnicycle:
			var opts []agent.UnicycleOption
			if c.Fleet.MaxRate > 0 {
				opts = append(opts, agent.WithMaxRate(c.Fleet.MaxRate))
			}
			a, err = agent.NewUnicycle(i, p, c.Fleet.Speed, c.Fleet.OrbitRate, opts...)
		case ModelSingleIntegrator:
			var opts []agent.SingleIntegratorOption
			if c.Fleet.Gain > 0 {
				opts = append(opts, agent.WithGain(c.Fleet.Gain))
			}
			if c.Fleet.MaxSpeed > 0 {
				opts = append(opts, agent.WithMaxSpeed(c.Fleet.MaxSpeed))
			}
			a, err = agent.NewSingleIntegrator(i, p.Point(), opts...)
		default:
			err = fmt.Errorf("unknown model %q", c.Fleet.Model)
		}
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "config: agent %d", i)
		}
		agents[i] = a
	}
	return agents, nil
}

// Params returns the cost and control parameters. It assumes a validated config.
func (c *Config) Params() lyapunov.Params {
	var p lyapunov.Params
	for i := range 2 {
		for j := range 2 {
			if i < len(c.Control.Q) && j < len(c.Control.Q[i]) {
				p.Q[i][j] = c.Control.Q[i][j]
			}
		}
	}
	p.Gamma = c.Control.Gamma
	p.Eps = c.Control.Eps
	return p
}

// PartitionOptions returns the options for the tolerances set in the config.
func (c *Config) PartitionOptions() []cvtcoverage.PartitionOption {
	var opts []cvtcoverage.PartitionOption
	if c.Partition.MergeEps != 0 {
		opts = append(opts, cvtcoverage.WithMergeEps(c.Partition.MergeEps))
	}
	if c.Partition.BoundarySlack != 0 {
		opts = append(opts, cvtcoverage.WithBoundarySlack(c.Partition.BoundarySlack))
	}
	if c.Partition.FarPointFactor != 0 {
		opts = append(opts, cvtcoverage.WithFarPointFactor(c.Partition.FarPointFactor))
	}
	return opts
}

// SensitivityEngine returns the engine for the configured quadrature.
func (c *Config) SensitivityEngine() (*sensitivity.Engine, error) {
	if c.Partition.QuadratureNodes == 0 {
		return sensitivity.New()
	}
	return sensitivity.New(sensitivity.WithQuadratureNodes(c.Partition.QuadratureNodes))
}

// OrchestratorOptions returns the partition, quadrature and parallelism options.
func (c *Config) OrchestratorOptions() ([]orchestrator.Option, error) {
	engine, err := c.SensitivityEngine()
	if err != nil {
		return nil, err
	}
	opts := []orchestrator.Option{
		orchestrator.WithPartitionOptions(c.PartitionOptions()...),
		orchestrator.WithSensitivityEngine(engine),
	}
	if c.Simulation.Parallelism > 0 {
		opts = append(opts, orchestrator.WithParallelism(c.Simulation.Parallelism))
	}
	return opts, nil
}

func checkRows(name string, rows [][]float64, width int) error {
	var err error
	for i, row := range rows {
		if len(row) != width {
			err = multierr.Append(err, fmt.Errorf("%s[%d] has %d values, want %d", name, i, len(row), width))
			continue
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				err = multierr.Append(err, fmt.Errorf("%s[%d] is not finite", name, i))
				break
			}
		}
	}
	return err
}

func validateOptions(opts []cvtcoverage.PartitionOption) error {
	var err error
	var probe cvtcoverage.PartitionOptions
	for _, opt := range opts {
		err = multierr.Append(err, opt(&probe))
	}
	return err
}
