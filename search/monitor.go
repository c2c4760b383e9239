package search

import "github.com/textflock/refind/core"

// SearchMonitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate stages during a search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int)
	AfterCandidateFetch(count int)
	AfterScoring(scored, skipped int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)      {}
func (n *noopMonitor) AfterCandidateFetch(_ int)      {}
func (n *noopMonitor) AfterScoring(_, _ int)          {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)  {}
