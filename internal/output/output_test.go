package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v         float64
		precision int
		want      string
	}{
		{32, 6, "32"},
		{0.0997135859, 6, "0.099714"},
		{-0.02609, 3, "-0.026"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{1.10, 4, "1.1"},
		{math.Inf(1), 2, "+Inf"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.v, tt.precision); got != tt.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.v, tt.precision, got, tt.want)
		}
	}
}

func TestToCSV(t *testing.T) {
	rows := [][]string{
		{"Date", "Note"},
		{"2020-01-01", "seed, round"},
		{"2021-01-01", `say "hi"`},
	}
	want := "Date,Note\n2020-01-01,\"seed, round\"\n2021-01-01,\"say \"\"hi\"\"\"\n"
	if got := ToCSV(rows); got != want {
		t.Errorf("ToCSV = %q, want %q", got, want)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, "finance xirr", map[string]float64{"xirr": 0.1}); err != nil {
		t.Fatal(err)
	}
	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Command != "finance xirr" || res.Version == "" {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

func TestPrintJSONError(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONError(&buf, "book read", errors.New("sheet not found"), ExitUserError); err != nil {
		t.Fatal(err)
	}
	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Error != "sheet not found" || res.Code != ExitUserError {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

type codedError struct{}

func (codedError) Error() string { return "coded" }
func (codedError) ExitCode() int { return ExitSystemError }

func TestExitCodeFor(t *testing.T) {
	if got := ExitCodeFor(nil); got != ExitOK {
		t.Errorf("nil: got %d", got)
	}
	if got := ExitCodeFor(errors.New("x")); got != ExitUserError {
		t.Errorf("plain: got %d", got)
	}
	if got := ExitCodeFor(codedError{}); got != ExitSystemError {
		t.Errorf("coded: got %d", got)
	}
}

func TestWriterNumber(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false, 4)
	if err := w.WriteNumber("XIRR", 0.0997135859); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "XIRR: 0.0997\n" {
		t.Errorf("got %q", got)
	}

	buf.Reset()
	jw := NewWriter(&buf, true, 4)
	jw.WriteNumber("XIRR", 1)
	if buf.Len() != 0 {
		t.Errorf("JSON writer should not print text, got %q", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false, 6)
	if err := w.WriteTable([][]string{{"Date", "Amount"}, {"2020-01-01", "-100"}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "  Date       | Amount" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "  2020-01-01 | -100" {
		t.Errorf("row = %q", lines[1])
	}

	buf.Reset()
	w.WriteTable(nil)
	if !strings.Contains(buf.String(), "(empty)") {
		t.Errorf("expected empty marker, got %q", buf.String())
	}
}

func TestShouldPageNonTerminal(t *testing.T) {
	if ShouldPage(&bytes.Buffer{}, strings.Repeat("x\n", 500), 10) {
		t.Error("a buffer is never paged")
	}
}
