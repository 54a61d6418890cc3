// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package exchange passes sensitivity reports between neighbouring agents in rounds.
//
// A round is opened with BeginRound, filled with Publish, closed with Seal and drained
// with Fetch. Fetch is rejected until the round is sealed, which is the barrier that
// keeps receivers from reading a partially published round. Every report is delivered
// once and only to its receiver.
package exchange

import (
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/2dChan/cvtcoverage/cverrors"
)

// Transport moves reports between agents. Bus is the in-process implementation; a
// networked transport must keep the same round and delivery semantics.
type Transport interface {
	BeginRound(round uint64) error
	Publish(r SensitivityReport) error
	Seal() error
	Fetch(receiverID int, neighborIDs []int) ([]SensitivityReport, error)
}

type phase int

const (
	phaseIdle phase = iota
	phasePublishing
	phaseSealed
)

// Bus is an in-process Transport keyed by (publisher, receiver). It is safe for
// concurrent use.
type Bus struct {
	clock clock.Clock

	mu        sync.Mutex
	round     uint64
	started   bool
	phase     phase
	inbox     map[route]SensitivityReport
	delivered map[route]bool
	// previous holds the last completed round, for inspection only.
	previous map[route]SensitivityReport
}

var _ Transport = (*Bus)(nil)

type BusOption func(*Bus)

// WithClock sets the clock used to timestamp reports.
func WithClock(c clock.Clock) BusOption {
	return func(b *Bus) {
		b.clock = c
	}
}

// NewBus returns an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		clock:     clock.New(),
		inbox:     make(map[route]SensitivityReport),
		delivered: make(map[route]bool),
		previous:  make(map[route]SensitivityReport),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Round returns the current round number.
func (b *Bus) Round() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.round
}

// BeginRound discards the reports of the current round, keeping them as the previous
// round, and opens round for publishing. Rounds must strictly increase.
func (b *Bus) BeginRound(round uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started && round <= b.round {
		return pkgerrors.Wrapf(ErrStaleRound, "begin round %d after %d", round, b.round)
	}
	if b.started {
		b.previous = b.inbox
	}
	b.inbox = make(map[route]SensitivityReport)
	b.delivered = make(map[route]bool)
	b.round = round
	b.started = true
	b.phase = phasePublishing
	return nil
}

// Publish stores r for its receiver. The bus assigns the id, version and timestamp of
// reports that do not carry them.
func (b *Bus) Publish(r SensitivityReport) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != phasePublishing {
		return pkgerrors.Wrapf(ErrNotPublishing, "publish %d->%d", r.PublisherID, r.ReceiverID)
	}
	if r.Round != b.round {
		return pkgerrors.Wrapf(ErrStaleRound, "publish round %d in round %d", r.Round, b.round)
	}
	if r.PublisherID == r.ReceiverID {
		return pkgerrors.Wrapf(ErrSelfAddressed, "publish %d->%d", r.PublisherID, r.ReceiverID)
	}
	switch r.Version {
	case 0:
		r.Version = ReportVersion
	case ReportVersion:
	default:
		return pkgerrors.Wrapf(ErrUnknownVersion, "version %d", r.Version)
	}
	if _, ok := b.inbox[r.route()]; ok {
		return pkgerrors.Wrapf(ErrDuplicateReport, "publish %d->%d", r.PublisherID, r.ReceiverID)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = b.clock.Now()
	}
	b.inbox[r.route()] = r
	return nil
}

// Seal closes the current round for publishing and opens it for fetching.
func (b *Bus) Seal() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != phasePublishing {
		return pkgerrors.Wrapf(ErrNotPublishing, "seal round %d", b.round)
	}
	b.phase = phaseSealed
	return nil
}

// Fetch returns the reports sent to receiverID by each of neighborIDs, in the same
// order. Either every report is delivered or none is: a missing report fails with
// UnavailableNeighborInfoError and a report fetched twice with ErrAlreadyDelivered.
func (b *Bus) Fetch(receiverID int, neighborIDs []int) ([]SensitivityReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase != phaseSealed {
		return nil, pkgerrors.Wrapf(ErrNotSealed, "fetch for %d in round %d", receiverID, b.round)
	}

	reports := make([]SensitivityReport, 0, len(neighborIDs))
	for _, n := range neighborIDs {
		k := route{publisher: n, receiver: receiverID}
		r, ok := b.inbox[k]
		if !ok {
			return nil, &cverrors.UnavailableNeighborInfoError{Round: b.round, ReceiverID: receiverID, NeighborID: n}
		}
		if b.delivered[k] {
			return nil, pkgerrors.Wrapf(ErrAlreadyDelivered, "report %d->%d", n, receiverID)
		}
		reports = append(reports, r)
	}
	for _, r := range reports {
		b.delivered[r.route()] = true
	}
	return reports, nil
}

// Undelivered returns the reports of the current round nobody has fetched yet, ordered
// by publisher then receiver.
func (b *Bus) Undelivered() []SensitivityReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := lo.OmitByKeys(b.inbox, lo.Keys(b.delivered))
	return sortReports(lo.Values(pending))
}

// Previous returns the reports addressed to receiverID in the previous round. They are
// kept for debugging and plotting and must not feed the control law.
func (b *Bus) Previous(receiverID int) []SensitivityReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	return sortReports(lo.Filter(lo.Values(b.previous), func(r SensitivityReport, _ int) bool {
		return r.ReceiverID == receiverID
	}))
}

func sortReports(reports []SensitivityReport) []SensitivityReport {
	slices.SortFunc(reports, func(x, y SensitivityReport) int {
		if x.PublisherID != y.PublisherID {
			return x.PublisherID - y.PublisherID
		}
		return x.ReceiverID - y.ReceiverID
	})
	return reports
}
