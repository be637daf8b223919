package cli

import (
	"strings"
	"time"
	"unicode/utf8"
)

const ellipsis = "..."

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func newTable(headers []string) table {
	return table{headers: headers, widths: make([]int, len(headers))}
}

// table formats rows as fixed-width columns, separated by a line under the headers.
type table struct {
	headers []string
	rows    [][]string

	// maximum width per column, 0 means unlimited
	widths []int
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

// limit truncates values of the given column, which exceed the width.
func (t *table) limit(column int, width int) {
	t.widths[column] = max(width, len(ellipsis)+1)
}

func (t *table) format() string {
	rows := make([][]string, 0, len(t.rows)+1)
	rows = append(rows, t.headers)
	for _, row := range t.rows {
		cells := make([]string, len(t.headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = truncate(row[i], t.widths[i])
			}
		}
		rows = append(rows, cells)
	}

	columns := make([]int, len(t.headers))
	for _, row := range rows {
		for i, value := range row {
			columns[i] = max(columns[i], utf8.RuneCountInString(value))
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		line := make([]string, len(row))
		for i, value := range row {
			line[i] = value + strings.Repeat(" ", columns[i]-utf8.RuneCountInString(value))
		}
		sb.WriteString(strings.TrimRight(strings.Join(line, "   "), " "))
		sb.WriteRune('\n')
	}

	writeRow(rows[0])

	separator := make([]string, len(columns))
	for i, width := range columns {
		separator[i] = strings.Repeat("-", width)
	}
	writeRow(separator)

	for _, row := range rows[1:] {
		writeRow(row)
	}

	return sb.String()
}

func truncate(value string, width int) string {
	if width == 0 || utf8.RuneCountInString(value) <= width {
		return value
	}
	runes := []rune(value)
	return string(runes[:width-len(ellipsis)]) + ellipsis
}
