package pipeline

import (
	"strings"

	"github.com/Tangerg/biosearch/internal/entity"
)

// canonicalKey returns the canonical article key used by intersection,
// merge, and rrf (§4.1): doi if present, else pmid, else a lowercased
// title prefix.
func canonicalKey(a *entity.Article) string {
	switch {
	case a.DOI != "":
		return "doi:" + strings.ToLower(a.DOI)
	case a.PMID != "":
		return "pmid:" + a.PMID
	default:
		return "title:" + entity.TitlePrefixKey(a.Title)
	}
}
