package pipeline

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
}

func (f *fakeAdapter) ID() string { return f.id }
func (f *fakeAdapter) Search(ctx context.Context, query string, limit int, filters source.Filters) ([]*entity.Article, error) {
	return f.articles, nil
}
func (f *fakeAdapter) FetchByID(ctx context.Context, ids []string) ([]*entity.Article, error) {
	return f.articles, nil
}

func TestValidate_RejectsForwardReference(t *testing.T) {
	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "a", Action: entity.ActionSearch, Inputs: []string{"b"}},
			{ID: "b", Action: entity.ActionSearch},
		},
	}
	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_RejectsDuplicateID(t *testing.T) {
	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "a", Action: entity.ActionSearch},
			{ID: "a", Action: entity.ActionDetails},
		},
	}
	assert.Error(t, Validate(cfg))
}

func TestBatch_LinearChainProducesOneStepPerBatch(t *testing.T) {
	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "a", Action: entity.ActionSearch},
			{ID: "b", Action: entity.ActionDetails, Inputs: []string{"a"}},
		},
	}
	batches, err := batch(cfg)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "a", batches[0][0].ID)
	assert.Equal(t, "b", batches[1][0].ID)
}

func TestExecute_SingleSearchStep(t *testing.T) {
	article := &entity.Article{Title: "A Trial of Remimazolam", DOI: "10.1/x"}
	registry := source.NewRegistry(&fakeAdapter{id: "biomedical", articles: []*entity.Article{article}})
	ex := NewExecutor(registry, nil, nil, 0)

	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "s1", Action: entity.ActionSearch, Params: map[string]any{"query": "remimazolam", "sources": "biomedical"}},
		},
		Output: entity.DefaultPipelineOutput(),
	}

	articles, results, record, err := ex.Execute(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "10.1/x", articles[0].DOI)
	assert.True(t, results["s1"].OK())
	assert.NotEmpty(t, record.ID)
}

func TestExecute_AbortsOnErrorAbort(t *testing.T) {
	registry := source.NewRegistry()
	ex := NewExecutor(registry, nil, nil, 0)

	cfg := &entity.PipelineConfig{
		Steps: []entity.PipelineStep{
			{ID: "s1", Action: entity.ActionDetails, OnError: entity.OnErrorAbort, Params: map[string]any{"pmids": "12345678"}},
		},
		Output: entity.DefaultPipelineOutput(),
	}
	_, _, _, err := ex.Execute(context.Background(), cfg)
	require.Error(t, err)
}

func TestHandlePICO_BuildsPrecisionAndRecall(t *testing.T) {
	step := entity.PipelineStep{ID: "p1", Action: entity.ActionPICO, Params: map[string]any{
		"P": "ICU patients", "I": "remimazolam", "C": "propofol",
	}}
	res, err := handlePICO(context.Background(), nil, step, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Metadata["precision"], "remimazolam")
	assert.Contains(t, res.Metadata["recall"], "propofol")
}
