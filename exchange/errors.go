// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exchange

import "errors"

var (
	ErrNotPublishing = errors.New("exchange: round is not accepting reports")

	ErrNotSealed = errors.New("exchange: round is not sealed")

	ErrStaleRound = errors.New("exchange: report or round is stale")

	ErrDuplicateReport = errors.New("exchange: report already published")

	ErrAlreadyDelivered = errors.New("exchange: report already delivered")

	ErrUnknownVersion = errors.New("exchange: unknown report version")

	ErrSelfAddressed = errors.New("exchange: report addressed to its publisher")
)
