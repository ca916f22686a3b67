// Package strategy implements the Strategy Generator (§4.6): named query
// variants for a topic under a chosen strategy label, with optional
// hit-count estimation. Purely functional given an optional counter.
package strategy

import (
	"context"
	"fmt"
)

// Label names the three strategy-generation modes.
type Label string

const (
	Comprehensive Label = "comprehensive"
	Focused       Label = "focused"
	Exploratory   Label = "exploratory"
)

// Variant is one named query variant.
type Variant struct {
	Name      string
	Query     string
	HitCount  *int // nil unless a Counter was supplied and succeeded
}

// Counter estimates the hit count for a query. No type in this module
// implements it (the biomedical adapter's Search returns nothing for
// limit 0), so hit counts stay nil unless a caller supplies a Counter.
type Counter interface {
	Count(ctx context.Context, query string) (int, error)
}

// Generate produces the named query variants for topic under label. If
// counter is non-nil, each variant's hit count is estimated; a counter
// failure leaves that variant's HitCount nil rather than failing the
// whole call (§4.6: "purely functional given those services").
func Generate(ctx context.Context, topic string, label Label, counter Counter) []Variant {
	variants := []Variant{
		{Name: "title_only", Query: fmt.Sprintf("%s[Title]", topic)},
		{Name: "title_abstract", Query: fmt.Sprintf("%s[Title/Abstract]", topic)},
		{Name: "all_fields", Query: topic},
		{Name: "mesh_qualified", Query: fmt.Sprintf("%s[MeSH Terms]", topic)},
		{Name: "rct_filtered", Query: fmt.Sprintf("%s AND randomized controlled trial[Publication Type]", topic)},
		{Name: "recent_years", Query: fmt.Sprintf("%s AND (\"last 5 years\"[PDat])", topic)},
	}

	variants = filterForLabel(variants, label)

	if counter == nil {
		return variants
	}
	for i := range variants {
		if count, err := counter.Count(ctx, variants[i].Query); err == nil {
			c := count
			variants[i].HitCount = &c
		}
	}
	return variants
}

// filterForLabel narrows the full variant set per strategy label:
// comprehensive keeps everything, focused narrows to the high-precision
// variants, exploratory keeps the broad/recall-oriented ones.
func filterForLabel(variants []Variant, label Label) []Variant {
	switch label {
	case Focused:
		return keep(variants, "title_only", "mesh_qualified", "rct_filtered")
	case Exploratory:
		return keep(variants, "all_fields", "title_abstract", "recent_years")
	default:
		return variants
	}
}

func keep(variants []Variant, names ...string) []Variant {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out []Variant
	for _, v := range variants {
		if _, ok := wanted[v.Name]; ok {
			out = append(out, v)
		}
	}
	return out
}
