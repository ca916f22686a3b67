package pipeline

import (
	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
)

// batch partitions steps into concurrency batches via Kahn's layering
// (§4.1): each batch's steps may run concurrently once every batch before
// it has completed.
func batch(cfg *entity.PipelineConfig) ([][]entity.PipelineStep, error) {
	byID := make(map[string]entity.PipelineStep, len(cfg.Steps))
	inDegree := make(map[string]int, len(cfg.Steps))
	dependents := make(map[string][]string, len(cfg.Steps))

	for _, step := range cfg.Steps {
		byID[step.ID] = step
		inDegree[step.ID] = len(step.Inputs)
		for _, in := range step.Inputs {
			dependents[in] = append(dependents[in], step.ID)
		}
	}

	var batches [][]entity.PipelineStep
	remaining := make(map[string]int, len(inDegree))
	for k, v := range inDegree {
		remaining[k] = v
	}

	emitted := 0
	for {
		var ready []entity.PipelineStep
		for _, step := range cfg.Steps {
			if remaining[step.ID] == 0 {
				ready = append(ready, step)
			}
		}
		if len(ready) == 0 {
			break
		}
		batches = append(batches, ready)
		emitted += len(ready)
		for _, step := range ready {
			remaining[step.ID] = -1 // mark consumed, never ready again
			for _, dep := range dependents[step.ID] {
				remaining[dep]--
			}
		}
	}

	if emitted != len(cfg.Steps) {
		return nil, errs.NewCoreInvariantBroken("pipeline contains a cycle")
	}
	return batches, nil
}
