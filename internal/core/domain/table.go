package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxCellWidth  = 25
	truncatedKeep = 22
	ellipsis      = "..."
	noDataMarker  = "(no data)"
)

// FormatTable renders rows as a fixed-width text table inside a code fence.
// Columns are the first-seen union of all row columns; missing cells are NULL.
func FormatTable(rows []Row) string {
	if len(rows) == 0 {
		return noDataMarker
	}

	cols := Columns(rows)
	widths := make([]int, len(cols))
	for i, col := range cols {
		w := utf8.RuneCountInString(col)
		for _, r := range rows {
			if n := utf8.RuneCountInString(r.Get(col).String()); n > w {
				w = n
			}
		}
		widths[i] = min(w, maxCellWidth)
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	for i, col := range cols {
		fmt.Fprintf(&sb, "%-*s | ", widths[i], col)
	}
	sb.WriteString("\n")
	for i := range cols {
		sb.WriteString(strings.Repeat("-", widths[i]))
		sb.WriteString("-+-")
	}
	sb.WriteString("\n")
	for _, r := range rows {
		for i, col := range cols {
			fmt.Fprintf(&sb, "%-*s | ", widths[i], truncateCell(r.Get(col).String()))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	runes := []rune(s)
	return string(runes[:truncatedKeep]) + ellipsis
}

// TableColumn describes one column of a structured table for UI consumers.
type TableColumn struct {
	Title     string `json:"title"`
	DataIndex string `json:"dataIndex"`
	Key       string `json:"key"`
	Align     string `json:"align,omitempty"`
	Width     int    `json:"width"`
	Resizable bool   `json:"resizable"`
	Ellipsis  bool   `json:"ellipsis"`
}

// Table is the structured counterpart of FormatTable.
type Table struct {
	Columns    []TableColumn    `json:"columns"`
	DataSource []map[string]any `json:"dataSource"`
}

// BuildTable derives column definitions from the first non-NULL value of each
// column and converts every row to a map, filling missing cells with nil.
func BuildTable(rows []Row) *Table {
	cols := Columns(rows)
	t := &Table{
		Columns:    make([]TableColumn, 0, len(cols)),
		DataSource: make([]map[string]any, 0, len(rows)),
	}

	for _, col := range cols {
		kind := KindNull
		for _, r := range rows {
			if v := r.Get(col); !v.IsNull() {
				kind = v.Kind
				break
			}
		}
		tc := TableColumn{
			Title:     col,
			DataIndex: col,
			Key:       col,
			Width:     columnWidth(col, kind),
			Resizable: true,
			Ellipsis:  true,
		}
		if kind == KindInt || kind == KindFloat {
			tc.Align = "right"
		}
		t.Columns = append(t.Columns, tc)
	}

	for _, r := range rows {
		m := make(map[string]any, len(cols))
		for _, col := range cols {
			m[col] = r.Get(col).Any()
		}
		t.DataSource = append(t.DataSource, m)
	}
	return t
}

// columnWidth estimates a pixel width from the title's characters.
func columnWidth(title string, kind Kind) int {
	width := 20
	for _, r := range title {
		switch {
		case unicode.Is(unicode.Han, r):
			width += 17
		case unicode.IsLetter(r):
			width += 12
		case unicode.IsDigit(r):
			width += 8
		default:
			width += 7
		}
	}

	switch kind {
	case KindInt, KindFloat:
		return max(120, width)
	case KindTime:
		return max(160, width)
	}
	return width
}
