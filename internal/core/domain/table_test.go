package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTable_Basic(t *testing.T) {
	t.Parallel()
	rows := []Row{
		NewRow([]string{"name", "total"}, []any{"alice", 10}),
		NewRow([]string{"name", "total"}, []any{"bob", nil}),
	}

	want := "```\n" +
		"name  | total | \n" +
		"------+-------+-\n" +
		"alice | 10    | \n" +
		"bob   | NULL  | \n" +
		"```\n"
	assert.Equal(t, want, FormatTable(rows))
}

func TestFormatTable_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, noDataMarker, FormatTable(nil))
	assert.NotContains(t, FormatTable([]Row{}), "|")
}

func TestFormatTable_TruncatesLongValues(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 30)
	rows := []Row{NewRow([]string{"note"}, []any{long})}

	out := FormatTable(rows)
	assert.Contains(t, out, strings.Repeat("x", 22)+"... | ")
	assert.NotContains(t, out, strings.Repeat("x", 23))
	// Width is capped at 25 characters.
	assert.Contains(t, out, "note"+strings.Repeat(" ", 21)+" | ")
}

func TestFormatTable_ExactlyMaxWidthNotTruncated(t *testing.T) {
	t.Parallel()
	v := strings.Repeat("y", 25)
	out := FormatTable([]Row{NewRow([]string{"c"}, []any{v})})
	assert.Contains(t, out, v+" | ")
	assert.NotContains(t, out, "...")
}

func TestFormatTable_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()
	rows := []Row{NewRow([]string{"地区"}, []any{"广州"})}
	out := FormatTable(rows)
	assert.Contains(t, out, "地区 | \n")
	assert.Contains(t, out, "广州 | \n")
}

func TestFormatTable_MissingColumnsRenderNull(t *testing.T) {
	t.Parallel()
	rows := []Row{
		NewRow([]string{"a"}, []any{"1"}),
		NewRow([]string{"b"}, []any{"2"}),
	}
	lines := strings.Split(FormatTable(rows), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "a    | b    | ", lines[1])
	assert.Equal(t, "1    | NULL | ", lines[3])
	assert.Equal(t, "NULL | 2    | ", lines[4])
}

func TestBuildTable(t *testing.T) {
	t.Parallel()
	rows := []Row{
		NewRow([]string{"region", "cnt", "day"}, []any{nil, int64(5), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}),
		NewRow([]string{"region", "cnt"}, []any{"440100", int64(7)}),
	}

	tbl := BuildTable(rows)
	require.Len(t, tbl.Columns, 3)

	region := tbl.Columns[0]
	assert.Equal(t, "region", region.Title)
	assert.Equal(t, "region", region.DataIndex)
	assert.Equal(t, "region", region.Key)
	assert.Equal(t, "", region.Align)
	assert.Equal(t, 20+6*12, region.Width)
	assert.True(t, region.Resizable)
	assert.True(t, region.Ellipsis)

	cnt := tbl.Columns[1]
	assert.Equal(t, "right", cnt.Align)
	assert.Equal(t, 120, cnt.Width)

	assert.Equal(t, 160, tbl.Columns[2].Width)

	require.Len(t, tbl.DataSource, 2)
	assert.Nil(t, tbl.DataSource[0]["region"])
	assert.Equal(t, int64(7), tbl.DataSource[1]["cnt"])
	assert.Nil(t, tbl.DataSource[1]["day"])
}

func TestColumnWidth(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 20+17*2, columnWidth("地区", KindString))
	assert.Equal(t, 20+12+8+7, columnWidth("a1_", KindNull))
	assert.Equal(t, 20+17*10, columnWidth(strings.Repeat("数", 10), KindInt))
}
