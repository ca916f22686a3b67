package aggregator

import (
	"github.com/Tangerg/biosearch/internal/entity"
)

// articleKeys returns the set of dedup keys for an article: doi, pmid,
// and normalized-title-prefix, per §4.3. Empty keys are omitted.
func articleKeys(a *entity.Article) []string {
	var keys []string
	if a.DOI != "" {
		keys = append(keys, "doi:"+a.DOI)
	}
	if a.PMID != "" {
		keys = append(keys, "pmid:"+a.PMID)
	}
	if tp := entity.TitlePrefixKey(a.Title); tp != "" {
		keys = append(keys, "title:"+tp)
	}
	return keys
}

// groupByIdentity partitions articles into dedup groups using a
// union-find keyed by the union of every article's doi/pmid/title-prefix
// keys: any two articles sharing at least one key land in the same
// group (§4.3). Complexity: O(N * alpha(N)).
func groupByIdentity(articles []*entity.Article) [][]*entity.Article {
	uf := newUnionFind(len(articles))
	keyOwner := make(map[string]int, len(articles)*2)

	for i, a := range articles {
		for _, k := range articleKeys(a) {
			if owner, ok := keyOwner[k]; ok {
				uf.union(owner, i)
			} else {
				keyOwner[k] = i
			}
		}
	}

	groups := uf.groups()
	out := make([][]*entity.Article, 0, len(groups))
	for _, indices := range groups {
		group := make([]*entity.Article, len(indices))
		for i, idx := range indices {
			group[i] = articles[idx]
		}
		out = append(out, group)
	}
	return out
}
