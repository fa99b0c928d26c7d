package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/idmend/pkg/disposition"
	"github.com/agentstation/idmend/pkg/errors"
)

// RelocationStrategy selects the identifier-correction semantics for a
// whole run. Move and Exchange are never mixed within one run.
type RelocationStrategy string

const (
	// StrategyAuto follows the variant detected from the disposition sheet
	// and falls back to Move.
	StrategyAuto RelocationStrategy = "auto"
	// StrategyMove relabels current rows onto the target, evicting the
	// target's rows at that visit.
	StrategyMove RelocationStrategy = "move"
	// StrategyExchange swaps payload values between the two identifiers.
	StrategyExchange RelocationStrategy = "exchange"
)

// String returns the string representation of a strategy.
func (s RelocationStrategy) String() string {
	return string(s)
}

// Name returns the display name of the strategy.
func (s RelocationStrategy) Name() string {
	str := s.String()
	if str == "" {
		return ""
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

// Description returns a human-readable description.
func (s RelocationStrategy) Description() string {
	switch s {
	case StrategyMove:
		return "Relabel rows of the current identifier onto the target, keeping evicted target rows"
	case StrategyExchange:
		return "Swap payload columns between the current and target identifier"
	default:
		return "Use the semantics implied by the disposition sheet headers"
	}
}

// Resolve returns the concrete strategy for a ruleset variant.
func (s RelocationStrategy) Resolve(variant disposition.Variant) RelocationStrategy {
	if s != StrategyAuto && s != "" {
		return s
	}
	if variant == disposition.VariantExchange {
		return StrategyExchange
	}
	return StrategyMove
}

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (RelocationStrategy, error) {
	switch RelocationStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyMove:
		return StrategyMove, nil
	case StrategyExchange:
		return StrategyExchange, nil
	}
	return "", errors.NewValidationError("strategy", s, fmt.Sprintf("must be one of %s, %s, %s", StrategyAuto, StrategyMove, StrategyExchange))
}

// InconsistencyPolicy decides what happens when an exchange finds
// different row counts for the two identifiers.
type InconsistencyPolicy string

const (
	// PolicyAbort fails the run with the ConsistencyError.
	PolicyAbort InconsistencyPolicy = "abort"
	// PolicySkip skips the whole disposition row and records the error.
	PolicySkip InconsistencyPolicy = "skip"
)

// ParsePolicy parses an inconsistency policy name.
func ParsePolicy(s string) (InconsistencyPolicy, error) {
	switch InconsistencyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", errors.NewValidationError("on_inconsistent", s, "must be abort or skip")
}
