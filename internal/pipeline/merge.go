package pipeline

import (
	"sort"

	"github.com/Tangerg/biosearch/internal/aggregator"
	"github.com/Tangerg/biosearch/internal/entity"
)

const rrfK = 60

// mergeUnion runs the aggregator's dedup+score over every input list, per
// the merge step's "union" method (the default).
func mergeUnion(lists [][]*entity.Article, preset entity.RankingPreset) []*entity.Article {
	return aggregator.Aggregate(lists, "", preset)
}

// mergeIntersection keeps only articles whose canonical key appears in
// every input list, represented by the first list's matching article.
func mergeIntersection(lists [][]*entity.Article) []*entity.Article {
	if len(lists) == 0 {
		return nil
	}
	counts := make(map[string]int)
	first := make(map[string]*entity.Article)
	var order []string
	for i, list := range lists {
		seenInList := make(map[string]struct{})
		for _, a := range list {
			k := canonicalKey(a)
			if _, dup := seenInList[k]; dup {
				continue
			}
			seenInList[k] = struct{}{}
			counts[k]++
			if i == 0 {
				first[k] = a
				order = append(order, k)
			}
		}
	}
	var out []*entity.Article
	for _, k := range order {
		if counts[k] == len(lists) {
			out = append(out, first[k])
		}
	}
	return out
}

// mergeRRF implements Reciprocal Rank Fusion (k=60): each article's score
// accumulates 1/(k+rank) for every list it appears in, ranks are 1-based
// within each list. Ties are broken by declaration order (stable sort).
func mergeRRF(lists [][]*entity.Article) []*entity.Article {
	scores := make(map[string]float64)
	representative := make(map[string]*entity.Article)
	var order []string

	for _, list := range lists {
		for rank, a := range list {
			k := canonicalKey(a)
			if _, ok := representative[k]; !ok {
				representative[k] = a
				order = append(order, k)
			}
			scores[k] += 1.0 / float64(rrfK+rank+1)
		}
	}

	out := make([]*entity.Article, 0, len(order))
	for _, k := range order {
		a := representative[k]
		a.RankingScore = scores[k]
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RankingScore > out[j].RankingScore
	})
	return out
}
