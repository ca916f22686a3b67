package biosearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tangerg/biosearch/internal/entity"
	"github.com/Tangerg/biosearch/internal/source"
)

type fakeAdapter struct {
	id       string
	articles []*entity.Article
	panics   bool
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Search(ctx context.Context, query string, limit int, filters source.Filters) ([]*entity.Article, error) {
	if f.panics {
		panic("synthetic adapter panic")
	}
	return f.articles, nil
}

func (f *fakeAdapter) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	return f.articles, nil
}

func newTestGateway(adapters ...source.Adapter) *Gateway {
	registry := source.NewRegistry(adapters...)
	return New(registry, nil, nil)
}

func TestSearch_AggregatesAcrossSources(t *testing.T) {
	gw := newTestGateway(
		&fakeAdapter{id: "biomedical", articles: []*entity.Article{{PMID: "1", Title: "sepsis treatment trial"}}},
		&fakeAdapter{id: "openalex", articles: []*entity.Article{{OpenAlexID: "W1", Title: "sepsis treatment outcomes"}}},
	)

	articles, analysis, stats, err := gw.Search(context.Background(), "sepsis treatment", SearchOptions{
		Sources: []string{"biomedical", "openalex"},
		Limit:   10,
	})

	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Len(t, articles, 2)
	assert.Equal(t, 2, stats.TotalBeforeDedup)
	assert.ElementsMatch(t, []string{"biomedical", "openalex"}, stats.SourcesQueried)
}

func TestSearch_PanickingAdapterDoesNotCrashRequest(t *testing.T) {
	gw := newTestGateway(
		&fakeAdapter{id: "biomedical", panics: true},
		&fakeAdapter{id: "openalex", articles: []*entity.Article{{OpenAlexID: "W1", Title: "still returned"}}},
	)

	articles, _, stats, err := gw.Search(context.Background(), "anything", SearchOptions{
		Sources: []string{"biomedical", "openalex"},
		Limit:   10,
	})

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 0, stats.SourceAPICounts["biomedical"])
	assert.Equal(t, 1, stats.SourceAPICounts["openalex"])
}

func TestSearch_AutoFixesUnbalancedQuery(t *testing.T) {
	gw := newTestGateway(&fakeAdapter{id: "biomedical"})

	_, _, _, err := gw.Search(context.Background(), "(cancer treatment", SearchOptions{
		Sources: []string{"biomedical"},
	})
	require.NoError(t, err)
}

func TestSearch_EmptyQueryIsInvalidInput(t *testing.T) {
	gw := newTestGateway(&fakeAdapter{id: "biomedical"})

	_, _, _, err := gw.Search(context.Background(), "   ", SearchOptions{})
	require.Error(t, err)
}

func TestSearch_CrossSearchFallbackQueriesRemainingSources(t *testing.T) {
	gw := newTestGateway(
		&fakeAdapter{id: "biomedical", articles: []*entity.Article{{PMID: "1", Title: "rare disease x"}}},
		&fakeAdapter{id: "openalex", articles: []*entity.Article{{OpenAlexID: "W1", Title: "rare disease x detail"}}},
	)

	articles, _, stats, err := gw.Search(context.Background(), "rare disease x", SearchOptions{
		Sources:             []string{"biomedical"},
		CrossSearchFallback: true,
	})

	require.NoError(t, err)
	assert.Contains(t, stats.SourcesQueried, "openalex")
	assert.GreaterOrEqual(t, len(articles), 1)
}

func TestExecutePipeline_RunsSimpleSearchStep(t *testing.T) {
	gw := newTestGateway(&fakeAdapter{id: "biomedical", articles: []*entity.Article{{PMID: "1", Title: "diabetes management"}}})

	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "s1", Action: entity.ActionSearch, Params: map[string]any{"query": "diabetes", "sources": "biomedical"}},
		},
	}

	articles, stepResults, run, err := gw.ExecutePipeline(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Contains(t, stepResults, "s1")
	assert.True(t, stepResults["s1"].OK())
	assert.Len(t, articles, 1)
}

func TestDifference(t *testing.T) {
	out := difference([]string{"a", "b", "c"}, []string{"b"})
	assert.Equal(t, []string{"a", "c"}, out)
}
