package search

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/textflock/refind/ai"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/feedback"
	"github.com/textflock/refind/storage"
)

// Default search options.
const (
	// DefaultTopK is the number of hits returned when the caller does not ask
	// for a specific count.
	DefaultTopK = 5

	// DefaultMinScore is the adjusted-score threshold below which candidates
	// are dropped.
	DefaultMinScore float32 = 0.05
)

// Options controls a single search.
type Options struct {
	// TopK is the maximum number of hits to return. Must be positive.
	TopK int

	// MinScore drops candidates whose penalty-adjusted score falls below it.
	// Must be within [0, 1].
	MinScore float32

	// Category restricts candidates to one category. Nil searches all.
	Category *core.Category
}

// DefaultOptions returns the standard search options.
func DefaultOptions() Options {
	return Options{TopK: DefaultTopK, MinScore: DefaultMinScore}
}

func (o Options) validate() error {
	if o.TopK <= 0 {
		return ErrInvalidTopK
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return ErrInvalidMinScore
	}
	if o.Category != nil && !o.Category.Valid() {
		return core.ErrInvalidCategory
	}
	return nil
}

// Response is the outcome of a search.
//
// An empty Hits slice is a successful answer, not an error. When an upstream
// dependency failed, Degraded carries the diagnostic and Hits is empty; the
// caller decides whether to surface that to users.
type Response struct {
	// Hits are the ranked results, best first.
	Hits []*core.SearchResult

	// Skipped counts candidates dropped for malformed embeddings.
	Skipped int

	// Degraded is non-nil when the search ran in degraded mode because the
	// embedder or the store was unavailable.
	Degraded error
}

// Searcher retrieves and ranks documents for a query.
//
// Candidates are scored by cosine similarity against the query embedding,
// adjusted by the accumulated feedback penalty, filtered by the score
// threshold and ranked by category priority first, adjusted score second.
type Searcher struct {
	documents storage.DocumentRepository
	ledger    *feedback.Ledger
	embedder  ai.Embedder
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for parallel scoring.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}

		if s.pool != nil {
			s.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	ledger *feedback.Ledger,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if ledger == nil {
		return nil, ErrLedgerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		documents: documents,
		ledger:    ledger,
		embedder:  embedder,
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Search retrieves the best hits for the query.
// Returns an error only for invalid input; upstream failures degrade to an
// empty response with the diagnostic in Response.Degraded.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor runs Search with stage callbacks for observability.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query, serving degraded response", "err", err)
		return &Response{Degraded: err}, nil
	}
	monitor.AfterQueryEmbedding(len(embedding))

	candidates, err := s.documents.CandidateDocuments(ctx, opts.Category)
	if err != nil {
		s.logger.Error("error fetching candidate documents, serving degraded response", "err", err)
		return &Response{Degraded: err}, nil
	}
	monitor.AfterCandidateFetch(len(candidates))

	if len(candidates) == 0 {
		response := &Response{Hits: []*core.SearchResult{}}
		monitor.Finish(response.Hits)
		return response, nil
	}

	results, skipped := s.scoreCandidates(ctx, embedding, candidates, opts.MinScore)
	monitor.AfterScoring(len(results), skipped)

	// Category priority dominates score; within a priority, higher adjusted
	// score wins. Document ID breaks remaining ties so ordering is stable
	// across runs.
	sort.Slice(results, func(i, j int) bool {
		pi, pj := results[i].Document.Category.Priority(), results[j].Document.Category.Priority()
		if pi != pj {
			return pi < pj
		}
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.Id < results[j].Document.Id
	})

	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	for i, result := range results {
		result.Rank = i + 1
	}

	response := &Response{Hits: results, Skipped: skipped}
	monitor.Finish(response.Hits)
	return response, nil
}

// scoreCandidates shards the candidate list across the worker pool.
// Each shard writes only its own result slot, so no locking is needed until
// the merge.
func (s *Searcher) scoreCandidates(ctx context.Context, embedding []float32, candidates []*core.Document, minScore float32) ([]*core.SearchResult, int) {
	shardCount := s.pool.Cap()
	if shardCount > len(candidates) {
		shardCount = len(candidates)
	}
	shardSize := (len(candidates) + shardCount - 1) / shardCount

	shardResults := make([][]*core.SearchResult, shardCount)
	shardSkipped := make([]int, shardCount)

	var wg sync.WaitGroup
	for shard := 0; shard < shardCount; shard++ {
		start := shard * shardSize
		end := start + shardSize
		if end > len(candidates) {
			end = len(candidates)
		}

		shard := shard
		docs := candidates[start:end]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			shardResults[shard], shardSkipped[shard] = s.scoreShard(ctx, embedding, docs, minScore)
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool unavailable, score on the calling goroutine.
			task()
		}
	}
	wg.Wait()

	var results []*core.SearchResult
	var skipped int
	for shard := 0; shard < shardCount; shard++ {
		results = append(results, shardResults[shard]...)
		skipped += shardSkipped[shard]
	}
	return results, skipped
}

func (s *Searcher) scoreShard(ctx context.Context, embedding []float32, docs []*core.Document, minScore float32) ([]*core.SearchResult, int) {
	var results []*core.SearchResult
	var skipped int

	for _, doc := range docs {
		if len(doc.Vector) != len(embedding) {
			s.logger.Debug("skipping candidate with mismatched embedding",
				"documentId", doc.Id, "dimensions", len(doc.Vector), "expected", len(embedding))
			skipped++
			continue
		}

		score := CosineSimilarity(embedding, doc.Vector)
		adjusted := s.ledger.AdjustedScore(ctx, score, doc.Text)
		if adjusted < minScore {
			continue
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    adjusted,
		})
	}

	return results, skipped
}

// Release releases the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
