package aggregator

import (
	"math"
	"strings"
	"time"

	"github.com/Tangerg/biosearch/internal/entity"
)

// Weights holds the five ranking dimensions' weights, normalized to sum
// to 1 (§4.3).
type Weights struct {
	Relevance   float64
	Quality     float64
	Recency     float64
	Impact      float64
	SourceTrust float64
	HalfLife    float64 // recency half-life, in years
}

// Presets, named per entity.RankingPreset.
var Presets = map[entity.RankingPreset]Weights{
	entity.RankingBalanced: {Relevance: 0.30, Quality: 0.20, Recency: 0.20, Impact: 0.20, SourceTrust: 0.10, HalfLife: 5},
	entity.RankingImpact:   {Relevance: 0.20, Quality: 0.15, Recency: 0.15, Impact: 0.40, SourceTrust: 0.10, HalfLife: 5},
	entity.RankingRecency:  {Relevance: 0.25, Quality: 0.15, Recency: 0.40, Impact: 0.10, SourceTrust: 0.10, HalfLife: 5},
	entity.RankingQuality:  {Relevance: 0.20, Quality: 0.40, Recency: 0.15, Impact: 0.15, SourceTrust: 0.10, HalfLife: 5},
}

// Score populates a's three transient scoring fields and returns the
// combined ranking_score, given an optional query string (used by the
// relevance dimension) and the contributing-source count for the
// source_trust bonus.
func Score(a *entity.Article, query string, preset entity.RankingPreset, sourceCount int) float64 {
	w, ok := Presets[preset]
	if !ok {
		w = Presets[entity.RankingBalanced]
	}

	relevance := relevanceScore(a, query)
	quality := qualityScore(a)
	recency := recencyScore(a, w.HalfLife)
	impact := impactScore(a)
	trust := sourceTrustScore(a, sourceCount)

	a.RelevanceScore = relevance
	a.QualityScore = quality

	score := w.Relevance*relevance + w.Quality*quality + w.Recency*recency + w.Impact*impact + w.SourceTrust*trust
	a.RankingScore = score
	return score
}

func relevanceScore(a *entity.Article, query string) float64 {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return 0.5
	}
	titleFrac := termFraction(terms, a.Title)
	abstractFrac := termFraction(terms, a.Abstract)
	keywordsFrac := termFraction(terms, strings.Join(append(append([]string{}, a.Keywords...), a.MeshTerms...), " "))
	return 0.5*titleFrac + 0.3*abstractFrac + 0.2*keywordsFrac
}

func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func termFraction(terms []string, text string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

var articleTypeBonus = map[entity.ArticleType]float64{
	entity.ArticleTypeMetaAnalysis:  0.30,
	entity.ArticleTypeSystematicRev: 0.25,
	entity.ArticleTypeRCT:           0.20,
	entity.ArticleTypeClinicalTrial: 0.15,
	entity.ArticleTypeReview:        0.10,
	entity.ArticleTypeJournalArticle: 0.05,
}

func qualityScore(a *entity.Article) float64 {
	score := 0.5
	score += articleTypeBonus[a.ArticleType]
	score += float64(populatedBiblioCount(a)) / 7.0 * 0.1
	if a.HasOpenAccess() {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

func recencyScore(a *entity.Article, halfLife float64) float64 {
	if a.Year == nil {
		return 0.3
	}
	if halfLife <= 0 {
		halfLife = 5
	}
	age := float64(time.Now().Year() - *a.Year)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age/halfLife)
}

func impactScore(a *entity.Article) float64 {
	m := a.CitationMetrics
	if m == nil {
		return 0.3
	}
	if m.NIHPercentile != nil {
		return clip01(*m.NIHPercentile / 100)
	}
	if m.RelativeCitationRatio != nil {
		rcr := *m.RelativeCitationRatio
		return clip01(rcr / (rcr + 2))
	}
	if m.CitationCount != nil {
		return clip01(math.Log10(float64(*m.CitationCount)+1) / 3)
	}
	return 0.3
}

func sourceTrustScore(a *entity.Article, sourceCount int) float64 {
	base := trustOf(a.PrimarySource)
	if sourceCount < 2 {
		return clip01(base)
	}
	bonus := 0.1 * float64(sourceCount-1)
	if bonus > 0.2 {
		bonus = 0.2
	}
	return clip01(base + bonus)
}

func clip01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
