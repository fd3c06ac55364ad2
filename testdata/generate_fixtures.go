//go:build ignore

// This program generates test fixture files for xlnt.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/klytics/xlnt/internal/dates"
)

const months = 120

func main() {
	if err := generateWorkbook("flows.xlsx"); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating flows.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := generateYAML("flows.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating flows.yaml: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

// schedule is an investment of 10000 repaid monthly for ten years.
func schedule() ([]time.Time, []float64) {
	start := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	ds := []time.Time{start}
	amounts := []float64{-10000}
	for i := 1; i <= months; i++ {
		ds = append(ds, dates.EOMonth(start, i))
		amounts = append(amounts, 110)
	}
	return ds, amounts
}

func generateWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Flows"); err != nil {
		return err
	}
	f.SetCellValue("Flows", "A1", "Date")
	f.SetCellValue("Flows", "B1", "Amount")
	f.SetCellValue("Flows", "C1", "Weight")

	ds, amounts := schedule()
	for i := range ds {
		row := i + 2
		f.SetCellValue("Flows", fmt.Sprintf("A%d", row), ds[i])
		f.SetCellValue("Flows", fmt.Sprintf("B%d", row), amounts[i])
		f.SetCellValue("Flows", fmt.Sprintf("C%d", row), 1)
	}
	last := len(ds) + 1
	f.SetCellFormula("Flows", "E1", fmt.Sprintf("SUMPRODUCT(B2:B%d,C2:C%d)", last, last))

	if _, err := f.NewSheet("Notes"); err != nil {
		return err
	}
	f.SetCellValue("Notes", "A1", "Generated by testdata/generate_fixtures.go")

	return f.SaveAs(path)
}

func generateYAML(path string) error {
	type flow struct {
		Date   string  `yaml:"date"`
		Amount float64 `yaml:"amount"`
	}
	ds, amounts := schedule()
	flows := make([]flow, len(ds))
	for i := range ds {
		flows[i] = flow{Date: ds[i].Format(dates.Layout), Amount: amounts[i]}
	}
	data, err := yaml.Marshal(flows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
