package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Tangerg/biosearch/internal/entity"
)

// applyFiltersToQuery folds filters that an upstream search endpoint
// natively understands into the query string itself (year bounds, as
// most biomedical/scholarly search grammars support a date range term).
// Filters an endpoint cannot express are left for applyFiltersClientSide.
func applyFiltersToQuery(query string, f Filters) string {
	if f.MinYear == nil && f.MaxYear == nil {
		return query
	}
	from := "1900"
	to := "3000"
	if f.MinYear != nil {
		from = strconv.Itoa(*f.MinYear)
	}
	if f.MaxYear != nil {
		to = strconv.Itoa(*f.MaxYear)
	}
	return fmt.Sprintf("%s AND (%s[PDAT] : %s[PDAT])", query, from, to)
}

// applyFiltersClientSide re-applies every filter an adapter's own query
// syntax can't express natively, so every adapter honors the full Filters
// contract regardless of upstream capability (§4.2).
func applyFiltersClientSide(articles []*entity.Article, f Filters) []*entity.Article {
	out := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if f.MinYear != nil && (a.Year == nil || *a.Year < *f.MinYear) {
			continue
		}
		if f.MaxYear != nil && (a.Year == nil || *a.Year > *f.MaxYear) {
			continue
		}
		if f.OpenAccessOnly && !a.HasOpenAccess() {
			continue
		}
		if f.HasFullText && a.BestOALink() == nil {
			continue
		}
		if f.Language != "" && a.Language != "" && !strings.EqualFold(a.Language, f.Language) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func dedupPreserveOrder(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
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

var leadingYearRegex = regexp.MustCompile(`(19|20)\d{2}`)

// leadingYear extracts the first 19xx or 20xx digit run found anywhere in
// a free-form upstream date string (e.g. "2021 Jun 14",
// "2021-06-14T00:00:00Z"); a string without one yields nil,
// matching the best-effort non-ISO year extraction decided for the
// Query Analyzer's own year parsing.
func leadingYear(s string) *int {
	m := leadingYearRegex.FindString(s)
	if m == "" {
		return nil
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &y
}
