// Package aggregator implements the Aggregator (§4.3): identity-based
// deduplication via union-find, left-biased-additive merging, and
// five-dimension weighted ranking.
package aggregator

import (
	"sort"

	"github.com/Tangerg/biosearch/internal/entity"
)

// Aggregate deduplicates and scores one or more article lists, as a
// single flattened input. query and preset drive the ranking dimensions;
// an empty query degrades relevance to a constant 0.5 (§4.3).
func Aggregate(lists [][]*entity.Article, query string, preset entity.RankingPreset) []*entity.Article {
	var flat []*entity.Article
	for _, l := range lists {
		flat = append(flat, l...)
	}
	if len(flat) == 0 {
		return nil
	}

	groups := groupByIdentity(flat)
	merged := make([]*entity.Article, 0, len(groups))
	for _, g := range groups {
		merged = append(merged, mergeGroup(g))
	}

	for _, a := range merged {
		Score(a, query, preset, len(a.Sources))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RankingScore > merged[j].RankingScore
	})
	return merged
}
