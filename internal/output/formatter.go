// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// Writer writes labelled results either as aligned text or as JSON.
type Writer struct {
	dest      io.Writer
	json      bool
	precision int32
}

// NewWriter creates a writer. precision is the number of decimals printed
// for numbers in text mode.
func NewWriter(dest io.Writer, jsonMode bool, precision int) *Writer {
	return &Writer{dest: dest, json: jsonMode, precision: int32(precision)}
}

// JSON reports whether the writer emits JSON.
func (w *Writer) JSON() bool { return w.json }

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteNumber prints "label: value" in text mode. In JSON mode it is a no-op;
// callers encode their own result structs.
func (w *Writer) WriteNumber(label string, v float64) error {
	if w.json {
		return nil
	}
	bold := color.New(color.Bold)
	_, err := fmt.Fprintf(w.dest, "%s %s\n", bold.Sprint(label+":"), FormatNumber(v, int(w.precision)))
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteTable prints rows as a pipe-separated table with the first row as header.
func (w *Writer) WriteTable(rows [][]string) error {
	if len(rows) == 0 {
		_, err := color.New(color.FgHiBlack).Fprintln(w.dest, "  (empty)")
		return err
	}

	widths := make([]int, 0)
	for _, row := range rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 0)
			}
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}
	for i := range widths {
		if widths[i] > 40 {
			widths[i] = 40
		}
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	for i, row := range rows {
		var sb strings.Builder
		sb.WriteString("  ")
		for j := range widths {
			if j > 0 {
				sb.WriteString("| ")
			}
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			if len(cell) > widths[j] {
				cell = cell[:widths[j]-1] + "~"
			}
			sb.WriteString(cell + strings.Repeat(" ", widths[j]-len(cell)+1))
		}
		line := strings.TrimRight(sb.String(), " ")
		if i == 0 {
			color.New(color.Bold).Fprintln(w.dest, line)
			continue
		}
		fmt.Fprintln(w.dest, line)
	}
	return nil
}

// FormatNumber rounds v half away from zero to precision decimals and trims
// trailing zeros.
func FormatNumber(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v", v)
	}
	return decimal.NewFromFloat(v).Round(int32(precision)).String()
}

// ToCSV converts rows to CSV text, quoting cells with commas, quotes or newlines.
func ToCSV(rows [][]string) string {
	var sb strings.Builder
	for _, row := range rows {
		for j, cell := range row {
			if j > 0 {
				sb.WriteString(",")
			}
			if strings.ContainsAny(cell, ",\"\n\r") {
				sb.WriteString("\"" + strings.ReplaceAll(cell, "\"", "\"\"") + "\"")
			} else {
				sb.WriteString(cell)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteError writes an error message to stderr.
func WriteError(dest io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(dest, "Error: "+format+"\n", args...)
}
