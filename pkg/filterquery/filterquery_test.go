package filterquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = map[string]Field{
	"source":        {Column: "source", Kind: KindString},
	"length":        {Column: "length", Kind: KindNumber},
	"has_structure": {Column: "has_structure", Kind: KindBool},
}

func TestParseEmpty(t *testing.T) {
	expr, err := Parse("   ")
	require.NoError(t, err)
	assert.Nil(t, expr)
	assert.Nil(t, expr.Clauses())
}

func TestParseConjunction(t *testing.T) {
	expr, err := Parse(`source = "AFDB" and length >= 200 and has_structure = true`)
	require.NoError(t, err)
	require.Len(t, expr.Clauses(), 3)

	cond, args, err := expr.Translate(testFields)
	require.NoError(t, err)
	assert.Equal(t, "source = ? AND length >= ? AND has_structure = ?", cond)
	require.Len(t, args, 3)
	assert.Equal(t, "AFDB", args[0])
	assert.Equal(t, float64(200), args[1])
	assert.Equal(t, true, args[2])
}

func TestTranslateNotEquals(t *testing.T) {
	expr, err := Parse(`source != "AFDB"`)
	require.NoError(t, err)

	cond, args, err := expr.Translate(testFields)
	require.NoError(t, err)
	assert.Equal(t, "source <> ?", cond)
	assert.Equal(t, []any{"AFDB"}, args)
}

func TestTranslateContains(t *testing.T) {
	expr, err := Parse(`source contains "FDB"`)
	require.NoError(t, err)

	cond, args, err := expr.Translate(testFields)
	require.NoError(t, err)
	assert.Equal(t, "source LIKE ?", cond)
	assert.Equal(t, []any{"%FDB%"}, args)
}

func TestTranslateRejectsUnknownField(t *testing.T) {
	expr, err := Parse(`password = "x"`)
	require.NoError(t, err)

	_, _, err = expr.Translate(testFields)
	assert.ErrorContains(t, err, "unknown filter field")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestTranslateRejectsTypeMismatches(t *testing.T) {
	expr, err := Parse(`length = "tall"`)
	require.NoError(t, err)
	_, _, err = expr.Translate(testFields)
	assert.ErrorContains(t, err, "numeric")

	expr, err = Parse(`has_structure > true`)
	require.NoError(t, err)
	_, _, err = expr.Translate(testFields)
	assert.ErrorContains(t, err, "not applicable to booleans")

	expr, err = Parse(`length contains "20"`)
	require.NoError(t, err)
	_, _, err = expr.Translate(testFields)
	assert.ErrorContains(t, err, "contains requires a string field")
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, err := Parse(`source = `)
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = Parse(`source ~ "AFDB"`)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestTypeMismatchWrapsInvalidFilter(t *testing.T) {
	expr, err := Parse(`length = "tall"`)
	require.NoError(t, err)

	_, _, err = expr.Translate(testFields)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
