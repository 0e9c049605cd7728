// Package curation implements the curation workflow: the decision state
// machine, the append-only audit trail written in the same transaction as
// every status change, and the review queue.
package curation

import (
	"errors"
	"fmt"
)

// Status is the curation state of a candidate protein.
type Status string

const (
	StatusPending         Status = "pending"
	StatusClassified      Status = "classified"
	StatusDeferred        Status = "deferred"
	StatusRejected        Status = "rejected"
	StatusNeedsReanalysis Status = "needs_reanalysis"
)

// DecisionType is a curator-submitted decision. Skip is a pseudo-transition:
// it records an audit row but leaves the candidate untouched.
type DecisionType string

const (
	DecisionApprove   DecisionType = "approve"
	DecisionClassify  DecisionType = "classify"
	DecisionFlagNovel DecisionType = "flag_novel"
	DecisionDefer     DecisionType = "defer"
	DecisionReject    DecisionType = "reject"
	DecisionSkip      DecisionType = "skip"

	// decisionReanalysis is recorded by the administrative reanalysis
	// action; it is not accepted by the decision endpoint.
	decisionReanalysis DecisionType = "needs_reanalysis"
)

// ErrInvalidDecision is returned for a decision type outside the fixed set
// or a request missing required fields.
var ErrInvalidDecision = errors.New("invalid decision")

// decisionTransitions is the fixed, total transition table: every decision
// type maps to exactly one resulting status, independent of candidate
// content.
var decisionTransitions = map[DecisionType]Status{
	DecisionApprove:   StatusClassified,
	DecisionClassify:  StatusClassified,
	DecisionFlagNovel: StatusClassified,
	DecisionDefer:     StatusDeferred,
	DecisionReject:    StatusRejected,
	DecisionSkip:      StatusPending,
}

// ResolveTransition returns the status a decision type produces.
func ResolveTransition(d DecisionType) (Status, error) {
	status, ok := decisionTransitions[d]
	if !ok {
		return "", fmt.Errorf("decision type %q: %w", d, ErrInvalidDecision)
	}
	return status, nil
}

// NoveltyCategory is the legacy four-way novelty classification carried on
// candidates. It predates the tier1/tier2 cluster split and survives purely
// as a queue filter dimension; the two models are never merged.
type NoveltyCategory string

const (
	NoveltyDark           NoveltyCategory = "dark"
	NoveltySequenceOrphan NoveltyCategory = "sequence_orphan"
	NoveltyDivergent      NoveltyCategory = "divergent"
	NoveltyKnown          NoveltyCategory = "known"
)
