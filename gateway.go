// Package biosearch is the top-level entry point of the academic-literature
// search gateway (§6.2): a single Search call for the common case, and
// ExecutePipeline for callers that declare their own DAG.
package biosearch

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tangerg/biosearch/internal/aggregator"
	"github.com/Tangerg/biosearch/internal/cache"
	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
	"github.com/Tangerg/biosearch/internal/pipeline"
	"github.com/Tangerg/biosearch/internal/queryanalyzer"
	"github.com/Tangerg/biosearch/internal/queryvalidator"
	"github.com/Tangerg/biosearch/internal/semanticenhancer"
	"github.com/Tangerg/biosearch/internal/source"
	"github.com/Tangerg/biosearch/pkg/result"
	"github.com/Tangerg/biosearch/pkg/sets"
	biosync "github.com/Tangerg/biosearch/pkg/sync"
)

// defaultMaxFanOut bounds intra-step source fan-out (§5) when the caller
// hasn't configured executor.max_fan_out; it comfortably covers today's
// five-source registry with room for more adapters.
const defaultMaxFanOut = 8

// SearchOptions configures the batteries-included Search entry point
// (§6.2). Zero values select the documented defaults.
type SearchOptions struct {
	Sources             []string
	Limit               int
	MinYear             *int
	MaxYear             *int
	OpenAccessOnly      bool
	Ranking             entity.RankingPreset
	Enhance             bool
	CrossSearchFallback bool
}

// crossSearchFallbackThreshold is the article count below which, when
// CrossSearchFallback is requested, the remaining configured sources are
// queried as a supplement (§6.2).
const crossSearchFallbackThreshold = 3

// Stats accompanies every Search response with basic run diagnostics.
type Stats struct {
	SourcesQueried   []string
	SourceAPICounts  map[string]int
	TotalBeforeDedup int
	TotalAfterDedup  int
}

// Gateway wires the source registry, aggregator, query analyzer, and
// article cache together behind the two exposed operations (§6.2).
type Gateway struct {
	registry  *source.Registry
	enhancer  *semanticenhancer.Enhancer
	cache     *cache.Cache[*entity.Article]
	log       *zap.SugaredLogger
	maxFanOut int
}

// New constructs a Gateway from a configured source registry. enhancer
// may be nil: Search degrades `enhance: true` requests to a no-op pass
// through of the original query in that case.
func New(registry *source.Registry, enhancer *semanticenhancer.Enhancer, log *zap.SugaredLogger) *Gateway {
	return NewWithFanOut(registry, enhancer, log, defaultMaxFanOut)
}

// NewWithFanOut is New with an explicit intra-step fan-out bound, wired
// from Config.MaxFanOut by callers that load configuration (§5, §9: the
// limiter is instance-scoped, never process-global).
func NewWithFanOut(registry *source.Registry, enhancer *semanticenhancer.Enhancer, log *zap.SugaredLogger, maxFanOut int) *Gateway {
	if maxFanOut <= 0 {
		maxFanOut = defaultMaxFanOut
	}
	return &Gateway{
		registry:  registry,
		enhancer:  enhancer,
		cache:     cache.New[*entity.Article](cache.DefaultArticleTTL, cloneArticle),
		log:       log,
		maxFanOut: maxFanOut,
	}
}

func cloneArticle(a *entity.Article) *entity.Article {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// Search is the batteries-included entry point (§6.2): analyze, fan out
// to the recommended or requested sources, aggregate, rank, and
// truncate.
func (g *Gateway) Search(ctx context.Context, query string, opts SearchOptions) ([]*entity.Article, *entity.AnalyzedQuery, *Stats, error) {
	validated, err := queryvalidator.Validate(query)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(validated.Fixed) > 0 && g.log != nil {
		g.log.Infow("query auto-fixed", "original", query, "fixed", validated.Query, "fixes", validated.Fixed)
	}
	if len(validated.Warnings) > 0 && g.log != nil {
		g.log.Warnw("query validator warnings", "query", query, "warnings", validated.Warnings)
	}
	query = validated.Query

	analysis := queryanalyzer.Analyze(query)

	sourceIDs := opts.Sources
	if len(sourceIDs) == 0 {
		sourceIDs = analysis.RecommendedSources
	}

	effectiveQuery := query
	if opts.Enhance && g.enhancer != nil {
		enhanced := g.enhancer.Enhance(ctx, query)
		if len(enhanced.Strategies) > 0 {
			effectiveQuery = enhanced.Strategies[0]
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	filters := source.Filters{MinYear: opts.MinYear, MaxYear: opts.MaxYear, OpenAccessOnly: opts.OpenAccessOnly}

	lists, apiCounts := g.fanOut(ctx, sourceIDs, effectiveQuery, limit, filters)

	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if opts.CrossSearchFallback && total < crossSearchFallbackThreshold {
		remaining := difference(g.registry.IDs(), sourceIDs)
		if len(remaining) > 0 {
			moreLists, moreCounts := g.fanOut(ctx, remaining, effectiveQuery, limit, filters)
			lists = append(lists, moreLists...)
			for k, v := range moreCounts {
				apiCounts[k] = v
			}
			sourceIDs = append(sourceIDs, remaining...)
		}
	}

	preset := opts.Ranking
	if preset == "" {
		preset = entity.RankingBalanced
	}
	merged := aggregator.Aggregate(lists, query, preset)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	stats := &Stats{
		SourcesQueried:   sourceIDs,
		SourceAPICounts:  apiCounts,
		TotalBeforeDedup: total,
		TotalAfterDedup:  len(merged),
	}
	return merged, analysis, stats, nil
}

// fanOut dispatches one concurrent adapter call per source (§5: "intra-step
// source fan-out"), bounded by maxFanOut and tolerant of a panicking
// adapter: a source that panics is logged and counted as a miss, never
// crashes the request.
func (g *Gateway) fanOut(ctx context.Context, sourceIDs []string, query string, limit int, filters source.Filters) ([][]*entity.Article, map[string]int) {
	type fanOutResult struct {
		id string
		r  result.Result[[]*entity.Article]
	}
	resultCh := make(chan fanOutResult, len(sourceIDs))
	limiter := biosync.NewLimiter(max(1, min(g.maxFanOut, len(sourceIDs))))
	for _, id := range sourceIDs {
		id := id
		limiter.Acquire()
		biosync.Go(func() {
			defer limiter.Release()
			adapter, ok := g.registry.Get(id)
			if !ok {
				resultCh <- fanOutResult{id: id, r: result.Error[[]*entity.Article](errs.NewInvalidInput(id + ": source not registered"))}
				return
			}
			articles, err := adapter.Search(ctx, query, limit, filters)
			if err != nil {
				if g.log != nil {
					g.log.Warnw("source search failed", "source", id, "error", err)
				}
				resultCh <- fanOutResult{id: id, r: result.Error[[]*entity.Article](err)}
				return
			}
			resultCh <- fanOutResult{id: id, r: result.Value(articles)}
		}, func(err error) {
			if g.log != nil {
				g.log.Errorw("source search panicked", "source", id, "error", err)
			}
			resultCh <- fanOutResult{id: id, r: result.Error[[]*entity.Article](err)}
		})
	}

	var lists [][]*entity.Article
	counts := make(map[string]int, len(sourceIDs))
	for range sourceIDs {
		fr := <-resultCh
		articles, _ := fr.r.Get()
		counts[fr.id] = len(articles)
		if len(articles) > 0 {
			lists = append(lists, articles)
		}
	}
	return lists, counts
}

// difference returns the elements of all not present in exclude,
// preserving all's order.
func difference(all, exclude []string) []string {
	excluded := sets.NewHashSet[string](len(exclude))
	excluded.AddAll(exclude...)
	var out []string
	for _, a := range all {
		if !excluded.Contains(a) {
			out = append(out, a)
		}
	}
	return out
}

// ExecutePipeline runs a fully-validated PipelineConfig to completion
// (§6.2), delegating to the Pipeline Executor.
func (g *Gateway) ExecutePipeline(ctx context.Context, cfg *entity.PipelineConfig) ([]*entity.Article, map[string]*entity.StepResult, *pipeline.RunRecord, error) {
	ex := pipeline.NewExecutor(g.registry, g.enhancer, g.log, g.maxFanOut)
	return ex.Execute(ctx, cfg)
}
