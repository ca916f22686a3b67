// Package pipeline implements the DAG-based Pipeline Executor (§4.1):
// pre-run validation, Kahn's-algorithm batching, a literal dispatch
// table keyed by action, per-step error isolation, and run-record
// bookkeeping.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tangerg/biosearch/internal/aggregator"
	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
	"github.com/Tangerg/biosearch/internal/metrics"
	"github.com/Tangerg/biosearch/internal/semanticenhancer"
	"github.com/Tangerg/biosearch/internal/source"
	biosync "github.com/Tangerg/biosearch/pkg/sync"
)

// defaultMaxFanOut bounds intra-batch step concurrency when the caller
// hasn't configured executor.max_fan_out.
const defaultMaxFanOut = 8

// BatchTiming records one batch's wall-clock duration, keyed by its
// position in execution order.
type BatchTiming struct {
	BatchIndex int
	StepIDs    []string
	Duration   time.Duration
}

// RunRecord is execute_pipeline's diagnostics output (§6.2).
type RunRecord struct {
	ID                string
	BatchTimings      []BatchTiming
	StepArticleCounts map[string]int
	SourceAPICounts   map[string]int
	Errors            []string
}

// Executor wires the registry and semantic enhancer that step handlers
// need, and owns no other state: rate limiters and caches remain
// instance-scoped to the adapters themselves (§9).
type Executor struct {
	registry  *source.Registry
	enhancer  *semanticenhancer.Enhancer
	log       *zap.SugaredLogger
	maxFanOut int
}

func NewExecutor(registry *source.Registry, enhancer *semanticenhancer.Enhancer, log *zap.SugaredLogger, maxFanOut int) *Executor {
	if maxFanOut <= 0 {
		maxFanOut = defaultMaxFanOut
	}
	return &Executor{registry: registry, enhancer: enhancer, log: log, maxFanOut: maxFanOut}
}

// Execute runs cfg's DAG to completion (or abort) and returns the final
// ranked article list plus the full step-result map and run record.
func (ex *Executor) Execute(ctx context.Context, cfg *entity.PipelineConfig) ([]*entity.Article, map[string]*entity.StepResult, *RunRecord, error) {
	if err := Validate(cfg); err != nil {
		metrics.ObservePipeline("invalid")
		return nil, nil, nil, err
	}
	batches, err := batch(cfg)
	if err != nil {
		metrics.ObservePipeline("invalid")
		return nil, nil, nil, err
	}

	record := &RunRecord{
		ID:                uuid.NewString(),
		StepArticleCounts: make(map[string]int),
		SourceAPICounts:   make(map[string]int),
	}
	results := make(map[string]*entity.StepResult, len(cfg.Steps))

	limiter := biosync.NewLimiter(max(1, min(ex.maxFanOut, len(cfg.Steps))))
	for batchIdx, stepBatch := range batches {
		start := time.Now()
		stepIDs := make([]string, len(stepBatch))

		var wg sync.WaitGroup
		var mu sync.Mutex
		for i, step := range stepBatch {
			stepIDs[i] = step.ID
			wg.Add(1)
			limiter.Acquire()
			biosync.Go(func() {
				defer wg.Done()
				defer limiter.Release()
				stepStart := time.Now()
				res := ex.runStep(ctx, step, results)
				metrics.ObserveStep(string(step.Action), outcomeLabel(res), time.Since(stepStart).Seconds())
				if ex.log != nil {
					ex.log.Infow("pipeline step finished", "step_id", step.ID, "action", step.Action, "ok", res.OK(), "article_count", len(res.Articles), "elapsed", time.Since(stepStart))
				}
				mu.Lock()
				results[step.ID] = res
				mu.Unlock()
			}, func(err error) {
				defer wg.Done()
				defer limiter.Release()
				if ex.log != nil {
					ex.log.Errorw("pipeline step goroutine panicked", "step", step.ID, "error", err)
				}
				mu.Lock()
				results[step.ID] = &entity.StepResult{StepID: step.ID, Action: step.Action, Error: err.Error()}
				mu.Unlock()
			})
		}
		wg.Wait()

		batchDuration := time.Since(start)
		metrics.ObserveBatch(batchDuration.Seconds())
		if ex.log != nil {
			ex.log.Infow("pipeline batch finished", "batch_index", batchIdx, "step_ids", stepIDs, "elapsed", batchDuration)
		}
		record.BatchTimings = append(record.BatchTimings, BatchTiming{
			BatchIndex: batchIdx, StepIDs: stepIDs, Duration: batchDuration,
		})

		var abortedStep string
		for _, step := range stepBatch {
			res := results[step.ID]
			record.StepArticleCounts[step.ID] = len(res.Articles)
			if counts, ok := res.Metadata["source_api_counts"].(map[string]any); ok {
				for src, n := range counts {
					record.SourceAPICounts[src] += asInt(n)
				}
			}
			if !res.OK() {
				record.Errors = append(record.Errors, step.ID+": "+res.Error)
				if step.OnError == entity.OnErrorAbort {
					abortedStep = step.ID
				}
			}
		}
		if abortedStep != "" {
			metrics.ObservePipeline("aborted")
			return nil, results, record, errs.NewPipelineAborted(abortedStep, "step failed with on_error=abort")
		}
	}

	metrics.ObservePipeline("ok")
	final := finalArticles(cfg, batches, results)
	return final, results, record, nil
}

func outcomeLabel(res *entity.StepResult) string {
	if res.OK() {
		return "ok"
	}
	return "error"
}

func (ex *Executor) runStep(ctx context.Context, step entity.PipelineStep, priorResults map[string]*entity.StepResult) *entity.StepResult {
	handler, ok := dispatch[step.Action]
	if !ok {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Error: "no handler registered for action"}
	}

	inputs := make(map[string]*entity.StepResult, len(step.Inputs))
	for _, in := range step.Inputs {
		if r, ok := priorResults[in]; ok {
			inputs[in] = r
		}
	}

	res, err := ex.safeRun(ctx, handler, step, inputs)
	if err != nil {
		return &entity.StepResult{StepID: step.ID, Action: step.Action, Error: err.Error()}
	}
	return res
}

// safeRun catches a handler panic (matching §4.1: "a handler that
// raises is caught by the executor") in addition to propagating errors.
func (ex *Executor) safeRun(ctx context.Context, handler handlerFunc, step entity.PipelineStep, inputs map[string]*entity.StepResult) (res *entity.StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ex.log != nil {
				ex.log.Errorw("pipeline step panicked", "step", step.ID, "panic", r)
			}
			res, err = nil, errs.New(errs.CoreInvariantBroken, "step handler panicked")
		}
	}()
	return handler(ctx, ex, step, inputs)
}

// finalArticles selects the last step in declaration order (per §4.1),
// applies ranking, and truncates to output.limit.
func finalArticles(cfg *entity.PipelineConfig, batches [][]entity.PipelineStep, results map[string]*entity.StepResult) []*entity.Article {
	if len(cfg.Steps) == 0 {
		return nil
	}
	last := cfg.Steps[len(cfg.Steps)-1]
	res, ok := results[last.ID]
	if !ok || !res.OK() {
		return nil
	}

	preset := cfg.Output.Ranking
	if preset == "" {
		preset = entity.RankingBalanced
	}
	scored := aggregator.Aggregate([][]*entity.Article{res.Articles}, "", preset)

	limit := cfg.Output.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	default:
		return 0
	}
}
