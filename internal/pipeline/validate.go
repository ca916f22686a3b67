package pipeline

import (
	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/errs"
)

// Validate checks a PipelineConfig against §3.2/§4.1's pre-run invariants,
// failing fast before any step executes. Every failure is InvalidInput.
// Requiring each input to name an earlier step also rules out cycles;
// batch() still checks for one and reports it as CoreInvariantBroken.
func Validate(cfg *entity.PipelineConfig) error {
	if len(cfg.Steps) == 0 {
		return errs.NewInvalidInput("pipeline must declare at least one step")
	}
	if len(cfg.Steps) > entity.MaxPipelineSteps {
		return errs.NewInvalidInput("pipeline exceeds the maximum step count")
	}

	seen := make(map[string]struct{}, len(cfg.Steps))
	for _, step := range cfg.Steps {
		if step.ID == "" {
			return errs.NewInvalidInput("every step must have a non-empty id")
		}
		if _, dup := seen[step.ID]; dup {
			return errs.NewInvalidInput("duplicate step id: " + step.ID)
		}
		seen[step.ID] = struct{}{}
		if _, ok := entity.ValidActions[step.Action]; !ok {
			return errs.NewInvalidInput("unknown action for step " + step.ID)
		}
	}

	declaredBefore := make(map[string]struct{}, len(cfg.Steps))
	for _, step := range cfg.Steps {
		for _, in := range step.Inputs {
			if _, ok := declaredBefore[in]; !ok {
				return errs.NewInvalidInput("step " + step.ID + " references an input that is not an earlier step: " + in)
			}
		}
		declaredBefore[step.ID] = struct{}{}
	}
	return nil
}
