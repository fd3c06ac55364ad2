package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlnt/internal/finance"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/xl"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Flows"))
	require.NoError(t, f.SetCellValue("Flows", "A1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Flows", "B1", -100))
	require.NoError(t, f.SetCellValue("Flows", "A2", "2021-01-01"))
	require.NoError(t, f.SetCellValue("Flows", "B2", "110"))
	require.NoError(t, f.SetCellValue("Flows", "C1", 2))
	require.NoError(t, f.SetCellValue("Flows", "C2", 3))

	path := filepath.Join(t.TempDir(), "flows.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestMeasureValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Measure
		wantErr bool
	}{
		{"xirr one range", Measure{Kind: MeasureXIRR, Ranges: []string{"A1:B2"}}, false},
		{"xnpv two ranges", Measure{Kind: MeasureXNPV, Ranges: []string{"A1:B2", "C1:C2"}}, true},
		{"xirr no range", Measure{Kind: MeasureXIRR}, true},
		{"sumproduct ranges", Measure{Kind: MeasureSumProduct, Ranges: []string{"B1:B2", "C1:C2"}}, false},
		{"sumproduct no range", Measure{Kind: MeasureSumProduct}, true},
		{"unknown", Measure{Kind: "npv", Ranges: []string{"A1"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	path := writeWorkbook(t)
	env := NewEnv()
	defer env.Close()

	v, err := env.Compute(path, Measure{Kind: MeasureXIRR, Sheet: "Flows", Ranges: []string{"A1:B2"}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0997135859, v, 1e-8)

	v, err = env.Compute(path, Measure{Kind: MeasureXNPV, Rate: 0.1, Ranges: []string{"A1:B2"}})
	require.NoError(t, err)
	assert.InDelta(t, -0.0261, v, 1e-4)

	v, err = env.Compute(path, Measure{Kind: MeasureSumProduct, Ranges: []string{"B1:B2", "C1:C2"}})
	require.NoError(t, err)
	assert.Equal(t, 130.0, v)

	// every computation reused the one open workbook
	assert.Equal(t, 1, env.Registry().Count())
	assert.True(t, env.Registry().IsOpen(path))
}

func TestCashFlowsFromBookErrors(t *testing.T) {
	path := writeWorkbook(t)
	env := NewEnv()
	defer env.Close()
	book, err := env.OpenBook(path)
	require.NoError(t, err)

	_, err = CashFlowsFromBook(book, "Flows", "A1:C2")
	assert.ErrorContains(t, err, "expected two")

	_, err = CashFlowsFromBook(book, "Missing", "A1:B2")
	assert.ErrorIs(t, err, xl.ErrSheetNotFound)

	_, err = CashFlowsFromBook(book, "", "not-a-range")
	assert.ErrorContains(t, err, "invalid range")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, output.ExitOK},
		{&finance.ValidationError{Op: "xnpv", Reason: "empty"}, output.ExitUserError},
		{fmt.Errorf("wrapped: %w", &finance.ComputationError{Op: "xnpv", Reason: "rate"}), output.ExitCalcError},
		{&finance.ConvergenceError{Iterations: 50}, output.ExitCalcError},
		{xl.ErrReadOnly, output.ExitUserError},
		{errors.New("other"), output.ExitUserError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
