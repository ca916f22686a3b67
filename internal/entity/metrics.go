package entity

import "strings"

// CitationMetrics combines citation and impact data from whichever
// upstream sources supplied it (NIH iCite, Semantic Scholar, OpenAlex,
// CrossRef). Every field is nullable: not all sources provide all metrics.
type CitationMetrics struct {
	CitationCount             *int
	RelativeCitationRatio     *float64 // RCR, 1.0 == field average
	NIHPercentile             *float64 // 0-100
	ApproxPotentialToTranslate *float64 // APT, clinical relevance
	InfluentialCitationCount  *int
	CitationsPerYear          *float64
}

// ImpactLevel categorizes impact using whichever metric is available, most
// authoritative first. It is a diagnostics/reporting convenience and plays
// no part in the §4.3 impact score formula, which is computed separately
// by the aggregator.
func (m *CitationMetrics) ImpactLevel() string {
	if m == nil {
		return "unknown"
	}
	if m.NIHPercentile != nil {
		switch {
		case *m.NIHPercentile >= 90:
			return "high"
		case *m.NIHPercentile >= 50:
			return "medium"
		default:
			return "low"
		}
	}
	if m.RelativeCitationRatio != nil {
		switch {
		case *m.RelativeCitationRatio >= 2.0:
			return "high"
		case *m.RelativeCitationRatio >= 0.5:
			return "medium"
		default:
			return "low"
		}
	}
	if m.CitationCount != nil {
		switch {
		case *m.CitationCount >= 100:
			return "high"
		case *m.CitationCount >= 10:
			return "medium"
		default:
			return "low"
		}
	}
	return "unknown"
}

// mergeCitationMetrics keeps the larger of the two citation-count-bearing metrics sets,
// per §4.3 "keep the max citation count among metrics".
func mergeCitationMetrics(primary, other *CitationMetrics) *CitationMetrics {
	if other == nil {
		return primary
	}
	if primary == nil {
		return other
	}
	merged := *primary
	if merged.CitationCount == nil || (other.CitationCount != nil && *other.CitationCount > *merged.CitationCount) {
		merged.CitationCount = other.CitationCount
	}
	if merged.RelativeCitationRatio == nil {
		merged.RelativeCitationRatio = other.RelativeCitationRatio
	}
	if merged.NIHPercentile == nil {
		merged.NIHPercentile = other.NIHPercentile
	}
	if merged.ApproxPotentialToTranslate == nil {
		merged.ApproxPotentialToTranslate = other.ApproxPotentialToTranslate
	}
	if merged.InfluentialCitationCount == nil || (other.InfluentialCitationCount != nil && *other.InfluentialCitationCount > *merged.InfluentialCitationCount) {
		merged.InfluentialCitationCount = other.InfluentialCitationCount
	}
	if merged.CitationsPerYear == nil {
		merged.CitationsPerYear = other.CitationsPerYear
	}
	return &merged
}

// OpenAccessLink is one potential access point for an article.
type OpenAccessLink struct {
	URL      string
	Version  string // publishedVersion | acceptedVersion | submittedVersion | unknown
	HostType string // publisher | repository | preprint
	License  string
	IsBest   bool
}

// IsPDF is a rendering convenience, not used by any core algorithm.
func (l OpenAccessLink) IsPDF() bool {
	u := strings.ToLower(l.URL)
	return strings.HasSuffix(u, ".pdf") || strings.Contains(u, "/pdf/")
}

// SourceMetadata records provenance: which upstream source produced a
// record and when, used by the aggregator for trust weighting and by
// diagnostics for debugging.
type SourceMetadata struct {
	Source    string
	FetchedAt string // ISO-8601 timestamp; kept as string to avoid forcing a parse on every adapter response
	Raw       []byte `json:"-"`
}
