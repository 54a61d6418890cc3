// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exchange

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"github.com/2dChan/cvtcoverage/sensitivity"
)

// ReportVersion is the current layout of SensitivityReport.
const ReportVersion = 1

// SensitivityReport carries dC_i/dz_j from the owner i of a cell to its neighbour j,
// together with the publisher state the receiver needs to fold it into its own gradient.
type SensitivityReport struct {
	Version int
	ID      uuid.UUID
	Round   uint64

	PublisherID int
	ReceiverID  int

	// Generator and Centroid of the publisher's cell.
	Generator r2.Point
	Centroid  r2.Point
	// DCiDzj is the derivative of the publisher's centroid with respect to the
	// receiver's generator.
	DCiDzj sensitivity.Jacobian

	CreatedAt time.Time
}

type route struct {
	publisher, receiver int
}

func (r SensitivityReport) route() route {
	return route{publisher: r.PublisherID, receiver: r.ReceiverID}
}
