package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
	"github.com/Tangerg/biosearch/internal/source"
	"github.com/Tangerg/biosearch/pkg/ptr"
	biosync "github.com/Tangerg/biosearch/pkg/sync"
)

type handlerFunc func(ctx context.Context, ex *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error)

var dispatch = map[entity.Action]handlerFunc{
	entity.ActionSearch:     handleSearch,
	entity.ActionPICO:       handlePICO,
	entity.ActionExpand:     handleExpand,
	entity.ActionDetails:    handleDetails,
	entity.ActionRelated:    handleRelated,
	entity.ActionCiting:     handleCiting,
	entity.ActionReferences: handleReferences,
	entity.ActionMetrics:    handleMetrics,
	entity.ActionMerge:      handleMerge,
	entity.ActionFilter:     handleFilter,
}

func handleSearch(ctx context.Context, ex *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error) {
	query := resolveSearchQuery(step, inputs)
	if query == "" {
		return nil, errs.NewInvalidInput("search step " + step.ID + " could not resolve a query")
	}

	sourceIDs := splitCSV(cast.ToString(step.Params["sources"]))
	if len(sourceIDs) == 0 {
		sourceIDs = ex.registry.IDs()
	}

	limit := cast.ToInt(step.Params["limit"])
	if limit <= 0 {
		limit = 20
	}
	filters := filtersFromParams(step.Params)

	type sourceResult struct {
		id       string
		articles []*entity.Article
		err      error
	}
	results := make(chan sourceResult, len(sourceIDs))
	limiter := biosync.NewLimiter(max(1, min(ex.maxFanOut, len(sourceIDs))))
	for _, id := range sourceIDs {
		id := id
		limiter.Acquire()
		biosync.Go(func() {
			defer limiter.Release()
			adapter, ok := ex.registry.Get(id)
			if !ok {
				results <- sourceResult{id: id, err: fmt.Errorf("unknown source: %s", id)}
				return
			}
			articles, err := adapter.Search(ctx, query, limit, filters)
			results <- sourceResult{id: id, articles: articles, err: err}
		}, func(err error) {
			results <- sourceResult{id: id, err: err}
		})
	}

	apiCounts := make(map[string]any, len(sourceIDs))
	var lists [][]*entity.Article
	var failures []string
	for range sourceIDs {
		r := <-results
		if r.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.id, r.err))
			apiCounts[r.id] = 0
			continue
		}
		apiCounts[r.id] = len(r.articles)
		lists = append(lists, r.articles)
	}

	var articles []*entity.Article
	if len(lists) == 1 {
		articles = lists[0]
	} else if len(lists) > 1 {
		articles = mergeUnion(lists, entity.RankingBalanced)
	}

	meta := map[string]any{"source_api_counts": apiCounts}
	if len(failures) > 0 {
		meta["source_failures"] = failures
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, Metadata: meta}, nil
}

func resolveSearchQuery(step entity.PipelineStep, inputs map[string]*entity.StepResult) string {
	if q := cast.ToString(step.Params["query"]); q != "" {
		return q
	}
	for _, in := range step.Inputs {
		res, ok := inputs[in]
		if !ok || !res.OK() {
			continue
		}
		switch res.Action {
		case entity.ActionPICO:
			combined := cast.ToString(step.Params["use_combined"])
			if combined == "" {
				combined = "precision"
			}
			if element := cast.ToString(step.Params["element"]); element != "" {
				if v, ok := res.Metadata[element]; ok {
					return cast.ToString(v)
				}
			}
			if v, ok := res.Metadata[combined]; ok {
				return cast.ToString(v)
			}
		case entity.ActionExpand:
			if strategy := cast.ToString(step.Params["strategy"]); strategy != "" {
				if strategies, ok := res.Metadata["strategies"].([]string); ok {
					for _, s := range strategies {
						if strings.Contains(s, strategy) {
							return s
						}
					}
				}
			}
			if v, ok := res.Metadata["expanded_query"]; ok {
				return cast.ToString(v)
			}
		}
	}
	return ""
}

func handlePICO(_ context.Context, _ *Executor, step entity.PipelineStep, _ map[string]*entity.StepResult) (*entity.StepResult, error) {
	p := cast.ToString(step.Params["P"])
	i := cast.ToString(step.Params["I"])
	c := cast.ToString(step.Params["C"])
	o := cast.ToString(step.Params["O"])
	if p == "" || i == "" {
		return nil, errs.NewInvalidInput("pico step " + step.ID + " requires at least P and I")
	}

	precision := andJoin(p, i, c, o)
	var recallParts []string
	if c != "" {
		recallParts = []string{i, c}
	} else {
		recallParts = []string{i}
	}
	recall := fmt.Sprintf("%s AND (%s)", p, strings.Join(recallParts, " OR "))

	meta := map[string]any{
		"precision": precision,
		"recall":    recall,
		"P":         p, "I": i, "C": c, "O": o,
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Metadata: meta}, nil
}

func andJoin(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, "("+p+")")
		}
	}
	return strings.Join(nonEmpty, " AND ")
}

func handleExpand(ctx context.Context, ex *Executor, step entity.PipelineStep, _ map[string]*entity.StepResult) (*entity.StepResult, error) {
	topic := cast.ToString(step.Params["topic"])
	if topic == "" {
		return nil, errs.NewInvalidInput("expand step " + step.ID + " requires params.topic")
	}
	if ex.enhancer == nil {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Metadata: map[string]any{
			"original_query": topic, "expanded_query": topic, "strategies": []string{topic},
		}}, nil
	}
	result := ex.enhancer.Enhance(ctx, topic)
	expandedQuery := topic
	if len(result.Strategies) > 0 {
		expandedQuery = result.Strategies[0]
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Metadata: map[string]any{
		"original_query": topic,
		"expanded_query": expandedQuery,
		"strategies":     result.Strategies,
		"expanded_terms": result.ExpandedTerms,
		"entities":       result.Entities,
	}}, nil
}

func handleDetails(ctx context.Context, ex *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error) {
	var pmids []string
	pmids = append(pmids, splitCSV(cast.ToString(step.Params["pmids"]))...)
	for _, in := range step.Inputs {
		if res, ok := inputs[in]; ok && res.OK() {
			pmids = append(pmids, res.PMIDs...)
			for _, a := range res.Articles {
				if a.PMID != "" {
					pmids = append(pmids, a.PMID)
				}
			}
		}
	}
	pmids = dedupPreserveOrderKeys(pmids)
	if len(pmids) == 0 {
		return &entity.StepResult{StepID: step.ID, Action: step.Action}, nil
	}
	adapter, ok := ex.registry.Get(source.BiomedicalID)
	if !ok {
		return nil, errs.WrapUpstreamUnavailable(nil, "biomedical source not configured")
	}
	articles, err := adapter.FetchByID(ctx, pmids)
	if err != nil {
		return nil, err
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, PMIDs: pmids}, nil
}

func handleRelated(ctx context.Context, ex *Executor, step entity.PipelineStep, _ map[string]*entity.StepResult) (*entity.StepResult, error) {
	return handleCitationGraph(ctx, ex, step, 20, func(c source.CitationsCapable, ctx context.Context, id string, limit int) ([]*entity.Article, error) {
		return c.Related(ctx, id, limit)
	})
}

func handleCiting(ctx context.Context, ex *Executor, step entity.PipelineStep, _ map[string]*entity.StepResult) (*entity.StepResult, error) {
	return handleCitationGraph(ctx, ex, step, 20, func(c source.CitationsCapable, ctx context.Context, id string, limit int) ([]*entity.Article, error) {
		return c.Citing(ctx, id, limit)
	})
}

func handleReferences(ctx context.Context, ex *Executor, step entity.PipelineStep, _ map[string]*entity.StepResult) (*entity.StepResult, error) {
	return handleCitationGraph(ctx, ex, step, 50, func(c source.CitationsCapable, ctx context.Context, id string, limit int) ([]*entity.Article, error) {
		return c.References(ctx, id, limit)
	})
}

func handleCitationGraph(ctx context.Context, ex *Executor, step entity.PipelineStep, defaultLimit int, call func(source.CitationsCapable, context.Context, string, int) ([]*entity.Article, error)) (*entity.StepResult, error) {
	pmid := cast.ToString(step.Params["pmid"])
	if pmid == "" {
		return nil, errs.NewInvalidInput(step.ID + " requires params.pmid")
	}
	limit := cast.ToInt(step.Params["limit"])
	if limit <= 0 {
		limit = defaultLimit
	}
	adapter, ok := ex.registry.Get(source.BiomedicalID)
	if !ok {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Metadata: map[string]any{"note": "biomedical source not configured"}}, nil
	}
	capable, ok := adapter.(source.CitationsCapable)
	if !ok {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Metadata: map[string]any{"note": "source does not support citation graph traversal"}}, nil
	}
	articles, err := call(capable, ctx, pmid, limit)
	if err != nil {
		return nil, err
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles}, nil
}

func handleMetrics(ctx context.Context, ex *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error) {
	var articles []*entity.Article
	for _, in := range step.Inputs {
		if res, ok := inputs[in]; ok && res.OK() {
			articles = append(articles, res.Articles...)
		}
	}
	skipped := 0
	var ids []string
	byID := make(map[string]*entity.Article)
	for _, a := range articles {
		if a.PMID == "" && a.DOI == "" {
			skipped++
			continue
		}
		key := a.PMID
		if key == "" {
			key = a.DOI
		}
		ids = append(ids, key)
		byID[key] = a
	}
	if len(ids) == 0 {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, Metadata: map[string]any{"metrics_skipped_count": skipped}}, nil
	}
	adapter, ok := ex.registry.Get(source.BiomedicalID)
	if !ok {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, Metadata: map[string]any{"metrics_skipped_count": skipped}}, nil
	}
	enriched, err := adapter.FetchByID(ctx, ids)
	if err != nil {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, Metadata: map[string]any{"metrics_skipped_count": skipped}}, nil
	}
	for _, e := range enriched {
		key := e.PMID
		if key == "" {
			key = e.DOI
		}
		if target, ok := byID[key]; ok && e.CitationMetrics != nil {
			target.CitationMetrics = e.CitationMetrics
		}
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: articles, Metadata: map[string]any{"metrics_skipped_count": skipped}}, nil
}

func handleMerge(_ context.Context, _ *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error) {
	var lists [][]*entity.Article
	for _, in := range step.Inputs {
		if res, ok := inputs[in]; ok && res.OK() {
			lists = append(lists, res.Articles)
		}
	}
	method := cast.ToString(step.Params["method"])
	if method == "" {
		method = "union"
	}

	var merged []*entity.Article
	switch method {
	case "intersection":
		merged = mergeIntersection(lists)
	case "rrf":
		merged = mergeRRF(lists)
	default:
		merged = mergeUnion(lists, entity.RankingBalanced)
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: merged, Metadata: map[string]any{"method": method}}, nil
}

func handleFilter(_ context.Context, _ *Executor, step entity.PipelineStep, inputs map[string]*entity.StepResult) (*entity.StepResult, error) {
	var articles []*entity.Article
	for _, in := range step.Inputs {
		if res, ok := inputs[in]; ok && res.OK() {
			articles = append(articles, res.Articles...)
		}
	}

	minYear := paramIntPtr(step.Params, "min_year")
	maxYear := paramIntPtr(step.Params, "max_year")
	minCitations := paramIntPtr(step.Params, "min_citations")
	hasAbstract := cast.ToBool(step.Params["has_abstract"])
	types := splitCSV(cast.ToString(step.Params["article_types"]))
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	out := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if minYear != nil && (a.Year == nil || *a.Year < *minYear) {
			continue
		}
		if maxYear != nil && (a.Year == nil || *a.Year > *maxYear) {
			continue
		}
		if minCitations != nil {
			count := 0
			if a.CitationMetrics != nil && a.CitationMetrics.CitationCount != nil {
				count = *a.CitationMetrics.CitationCount
			}
			if count < *minCitations {
				continue
			}
		}
		if hasAbstract && a.Abstract == "" {
			continue
		}
		if len(typeSet) > 0 {
			if _, ok := typeSet[string(a.ArticleType)]; !ok {
				continue
			}
		}
		out = append(out, a)
	}
	return &entity.StepResult{StepID: step.ID, Action: step.Action, Articles: out}, nil
}

func paramIntPtr(params map[string]any, key string) *int {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	return ptr.Pointer(cast.ToInt(v))
}

func filtersFromParams(params map[string]any) source.Filters {
	f := source.Filters{}
	if v := paramIntPtr(params, "min_year"); v != nil {
		f.MinYear = v
	}
	if v := paramIntPtr(params, "max_year"); v != nil {
		f.MaxYear = v
	}
	f.OpenAccessOnly = cast.ToBool(params["open_access_only"])
	f.HasFullText = cast.ToBool(params["has_full_text"])
	f.Language = cast.ToString(params["language"])
	return f
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupPreserveOrderKeys(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
