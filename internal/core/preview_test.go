package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPreview_LimitsRows(t *testing.T) {
	records := make([][]string, 1000)
	for i := range records {
		records[i] = []string{fmt.Sprintf("a b %d", i)}
	}
	tbl := NewTable([]string{"v"}, records)
	before := tbl.Clone()

	p, err := BuildPreview(tbl, "v", Operation{Kind: OpRemoveSpaces}, 0)
	require.NoError(t, err)

	assert.Len(t, p.Rows, DefaultPreviewLimit)
	assert.Len(t, p.Original, DefaultPreviewLimit)
	assert.Equal(t, 1000, p.TotalRows)
	assert.Equal(t, 1000, p.ChangedRows)
	assert.Equal(t, "ab0", p.Rows[0]["v"])
	assert.Equal(t, "a b 0", p.Original[0]["v"])
	assert.True(t, tbl.Equal(before), "preview must not modify the table")
}

func TestBuildPreview_SmallTable(t *testing.T) {
	tbl := NewTable([]string{"v"}, [][]string{{"x"}, {"y z"}})

	p, err := BuildPreview(tbl, "v", Operation{Kind: OpRemoveSpaces}, 10)
	require.NoError(t, err)

	assert.Len(t, p.Rows, 2)
	assert.Equal(t, 1, p.ChangedRows)
	require.Len(t, p.Patches, 1)
	assert.Equal(t, 1, p.Patches[0].Row)
	require.Len(t, p.Patches[0].Patch, 1)
	assert.Equal(t, "replace", p.Patches[0].Patch[0].Type)
	assert.Equal(t, "/v", p.Patches[0].Patch[0].Path)
	assert.Equal(t, []string{"v"}, p.ChangedColumns(1))
	assert.Empty(t, p.ChangedColumns(0))
}

func TestBuildPreview_NewColumn(t *testing.T) {
	tbl := NewTable([]string{"email"}, [][]string{{"a@b"}})

	p, err := BuildPreview(tbl, "email", Operation{Kind: OpSplitByChar, Delimiter: "@"}, 10)
	require.NoError(t, err)

	assert.Equal(t, "email_split", p.NewColumn)
	assert.Equal(t, []string{"email", "email_split"}, p.Columns)
	assert.Equal(t, "b", p.Rows[0]["email_split"])
	assert.ElementsMatch(t, []string{"email", "email_split"}, p.ChangedColumns(0))
}

func TestBuildPreview_InvalidExpression(t *testing.T) {
	tbl := NewTable([]string{"v"}, [][]string{{"x"}})

	_, err := BuildPreview(tbl, "v", Operation{Kind: OpCustomExpression, Expression: "value.("}, 10)
	assert.ErrorIs(t, err, ErrInvalidExpression)
}
