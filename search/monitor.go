package search

import (
	"github.com/poiesic/fauna/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// RelatedFetched and RelatedFailed are called from worker goroutines, so
// implementations must be safe for concurrent use.
type SearchMonitor interface {
	Start(requestID, query string)
	AfterIntentParsing(intent core.QueryIntent, predicates []core.RangePredicate)
	AfterIndexQuery(records []*core.SpeciesRecord, cached bool)
	AfterRefinement(kept, dropped int)
	RelatedFetched(base *core.SpeciesRecord, related []*core.SpeciesRecord)
	RelatedFailed(base *core.SpeciesRecord, err error)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                                               {}
func (n *noopMonitor) AfterIntentParsing(_ core.QueryIntent, _ []core.RangePredicate) {}
func (n *noopMonitor) AfterIndexQuery(_ []*core.SpeciesRecord, _ bool)                {}
func (n *noopMonitor) AfterRefinement(_, _ int)                                       {}
func (n *noopMonitor) RelatedFetched(_ *core.SpeciesRecord, _ []*core.SpeciesRecord)  {}
func (n *noopMonitor) RelatedFailed(_ *core.SpeciesRecord, _ error)                   {}
func (n *noopMonitor) Finish(_ *Result)                                               {}
