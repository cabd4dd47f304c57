package engine

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is;
// most call sites wrap them with additional context.
var (
	// ErrUnknownUnit indicates a unit identifier that is not in the registry.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrInvalidOddsTable indicates a malformed shop odds distribution at load.
	ErrInvalidOddsTable = errors.New("invalid odds table")

	// ErrInvalidLevel indicates odds were requested for an unsupported player level.
	ErrInvalidLevel = errors.New("invalid player level")

	// ErrPoolUnderflow indicates an observation that would drive a unit's
	// remaining pool count below zero.
	ErrPoolUnderflow = errors.New("pool underflow")

	// ErrPoolOverflow indicates a release that would push a unit's remaining
	// pool count above its printed total.
	ErrPoolOverflow = errors.New("pool overflow")

	// ErrEmptyCandidateSet indicates a ranking request with no decks to compare.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrProbabilityRange indicates a computed probability outside [0, 1].
	// Unlike the input errors above, this is an internal invariant violation:
	// it points at a defect in the probability math, not at bad input.
	ErrProbabilityRange = errors.New("probability out of range")
)
