// Package source implements the per-upstream adapters (§4.2): stateless
// with respect to calls, each holding an owned HTTP client and token-bucket
// rate limiter. Capabilities vary by source — modeled as the small
// capability-set interfaces below rather than a class hierarchy (§9
// "Inheritance and mixins").
package source

import (
	"context"

	"github.com/Tangerg/biosearch/internal/entity"
)

// Filters are the best-effort query constraints every adapter must honor
// when supported, and apply client-side otherwise (§4.2).
type Filters struct {
	MinYear        *int
	MaxYear        *int
	OpenAccessOnly bool
	HasFullText    bool
	Language       string
}

// SearchCapable is implemented by every adapter.
type SearchCapable interface {
	ID() string
	Search(ctx context.Context, query string, limit int, filters Filters) ([]*entity.Article, error)
}

// DetailsCapable is implemented by every adapter: fetch full records by
// identifier.
type DetailsCapable interface {
	FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error)
}

// CitationsCapable is implemented only by sources that expose citation
// graph traversal (the biomedical source, per §4.2). The executor queries
// for this capability before dispatching a related/citing/references step;
// a source that doesn't implement it yields an empty StepResult plus an
// informational metadata note, never an error (§9).
type CitationsCapable interface {
	Related(ctx context.Context, id string, limit int) ([]*entity.Article, error)
	Citing(ctx context.Context, id string, limit int) ([]*entity.Article, error)
	References(ctx context.Context, id string, limit int) ([]*entity.Article, error)
}

// Adapter is the full capability set an adapter may implement. Callers use
// type assertions against the narrower interfaces above to discover actual
// capability, matching §9's capability-set modeling.
type Adapter interface {
	SearchCapable
	DetailsCapable
}

// Registry maps source ids to adapters, used by the executor and the
// default Search() entry point to resolve params.sources (csv) into
// concrete adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters, keyed by their
// own ID().
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.ID()] = a
	}
	return r
}

func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}

func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		out = append(out, id)
	}
	return out
}
