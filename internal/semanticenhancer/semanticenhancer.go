// Package semanticenhancer implements the Semantic Enhancer (§4.5):
// given a topic, resolve canonical names and synonyms via an
// entity-lookup service, and build a strategy list combining the raw
// topic, canonical name, and synonyms under field qualifiers. Failures
// degrade softly to a single strategy containing the original topic.
package semanticenhancer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tangerg/biosearch/internal/entity"
)

// EntityLookup resolves a topic against a biomedical entity-lookup
// service (following the original's PubTatorEntity shape, per
// SPEC_FULL.md §4.5's supplement). No type in this module implements it;
// the biomedical source adapter's MeSHSynonyms has a different signature
// and does not satisfy it.
type EntityLookup interface {
	Lookup(ctx context.Context, topic string) ([]ResolvedEntity, error)
}

// ResolvedEntity is one entity match returned by the lookup service.
type ResolvedEntity struct {
	CanonicalName string
	EntityType    string // gene | disease | chemical | species | variant
	Synonyms      []string
	IsMesh        bool
}

// Result is the Semantic Enhancer's output.
type Result struct {
	Entities      []ResolvedEntity
	ExpandedTerms []entity.EnhancedTerm
	Strategies    []string
}

// Enhancer calls an EntityLookup and assembles the expansion result.
type Enhancer struct {
	lookup EntityLookup
	log    *zap.SugaredLogger
}

func New(lookup EntityLookup, log *zap.SugaredLogger) *Enhancer {
	return &Enhancer{lookup: lookup, log: log}
}

// Enhance resolves topic's canonical names/synonyms and builds a
// strategy list under title/abstract and MeSH field qualifiers. A
// lookup failure degrades to returning the original topic as the sole
// strategy, never an error.
func (e *Enhancer) Enhance(ctx context.Context, topic string) *Result {
	entities, err := e.lookup.Lookup(ctx, topic)
	if err != nil || len(entities) == 0 {
		if err != nil && e.log != nil {
			e.log.Warnw("semantic enhancer lookup failed, degrading to original topic", "topic", topic, "error", err)
		}
		return &Result{Strategies: []string{topic}}
	}

	var terms []entity.EnhancedTerm
	strategies := []string{fmt.Sprintf("%s[Title/Abstract]", topic)}

	for _, ent := range entities {
		terms = append(terms, entity.EnhancedTerm{Term: ent.CanonicalName, EntityType: ent.EntityType, IsMesh: ent.IsMesh})
		strategies = append(strategies, fmt.Sprintf("%s[Title/Abstract]", ent.CanonicalName))
		if ent.IsMesh {
			strategies = append(strategies, fmt.Sprintf("%s[MeSH Terms]", ent.CanonicalName))
		}
		for _, syn := range ent.Synonyms {
			terms = append(terms, entity.EnhancedTerm{Term: syn, EntityType: ent.EntityType, IsMesh: ent.IsMesh})
			strategies = append(strategies, fmt.Sprintf("%s[Title/Abstract]", syn))
		}
	}

	return &Result{Entities: entities, ExpandedTerms: terms, Strategies: strategies}
}
