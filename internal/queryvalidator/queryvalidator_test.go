package queryvalidator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tangerg/biosearch/internal/errs"
)

func TestValidate_EmptyQueryIsInvalidInput(t *testing.T) {
	_, err := Validate("   ")
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidInput, kind)
}

func TestValidate_ClosesUnbalancedParens(t *testing.T) {
	res, err := Validate("(cancer AND (treatment")
	require.NoError(t, err)
	assert.Equal(t, "(cancer AND (treatment))", res.Query)
	assert.Contains(t, res.Fixed, "balanced parentheses")
}

func TestValidate_DropsExcessClosingParens(t *testing.T) {
	res, err := Validate("cancer treatment))")
	require.NoError(t, err)
	assert.Equal(t, "cancer treatment", res.Query)
	assert.Contains(t, res.Fixed, "balanced parentheses")
}

func TestValidate_ClosesUnbalancedQuote(t *testing.T) {
	res, err := Validate(`"cancer treatment`)
	require.NoError(t, err)
	assert.Equal(t, `"cancer treatment"`, res.Query)
	assert.Contains(t, res.Fixed, "closed unbalanced quote")
}

func TestValidate_DropsLeadingBoolean(t *testing.T) {
	res, err := Validate("AND cancer treatment")
	require.NoError(t, err)
	assert.Equal(t, "cancer treatment", res.Query)
	assert.Contains(t, res.Fixed, "dropped leading boolean operator")
}

func TestValidate_UnrecognizedFieldTagWarns(t *testing.T) {
	res, err := Validate("autor:smith cancer")
	require.NoError(t, err)
	assert.Empty(t, res.Fixed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "autor")
}

func TestValidate_WellFormedQueryUnchanged(t *testing.T) {
	res, err := Validate("title:cancer AND (treatment OR therapy)")
	require.NoError(t, err)
	assert.Equal(t, "title:cancer AND (treatment OR therapy)", res.Query)
	assert.Empty(t, res.Fixed)
	assert.Empty(t, res.Warnings)
}
