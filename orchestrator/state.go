// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package orchestrator

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/2dChan/cvtcoverage"
	"github.com/2dChan/cvtcoverage/exchange"
	"github.com/2dChan/cvtcoverage/lyapunov"
	"github.com/2dChan/cvtcoverage/sensitivity"
)

// State is a phase of one coverage iteration.
type State int

const (
	StateComputePartition State = iota
	StateExchangePublish
	StateExchangeFetch
	StateComputeControl
	StateIntegrateDynamics
)

var stateNames = [...]string{
	StateComputePartition:  "COMPUTE_PARTITION",
	StateExchangePublish:   "EXCHANGE_PUBLISH",
	StateExchangeFetch:     "EXCHANGE_FETCH",
	StateComputeControl:    "COMPUTE_CONTROL",
	StateIntegrateDynamics: "INTEGRATE_DYNAMICS",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Next returns the state that follows s. INTEGRATE_DYNAMICS loops back to
// COMPUTE_PARTITION.
func (s State) Next() State {
	return (s + 1) % State(len(stateNames))
}

// SimulationState is everything one iteration produces. It is owned by the Orchestrator
// and replaced as the iteration advances.
type SimulationState struct {
	Iteration uint64
	State     State

	Generators    []r2.Point
	Partition     *cvtcoverage.Partition
	Sensitivities []sensitivity.Result
	// Inbox holds the reports fetched by each agent this iteration.
	Inbox       [][]exchange.SensitivityReport
	Evaluations []lyapunov.Evaluation
	Gradients   []r2.Point
	Commands    []float64
}

func newSimulationState(iteration uint64, n int) SimulationState {
	return SimulationState{
		Iteration:     iteration,
		State:         StateComputePartition,
		Sensitivities: make([]sensitivity.Result, n),
		Inbox:         make([][]exchange.SensitivityReport, n),
		Evaluations:   make([]lyapunov.Evaluation, n),
		Gradients:     make([]r2.Point, n),
		Commands:      make([]float64, n),
	}
}
