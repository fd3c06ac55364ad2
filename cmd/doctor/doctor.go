// Package doctor provides the "xlnt doctor" command for checking the setup.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/config"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/watch"
	"github.com/klytics/xlnt/internal/xl"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and the workbook engine",
		Long:  "Run diagnostic checks to verify xlnt is properly configured and can calculate workbooks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks(env)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), "doctor", checks)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "xlnt doctor")
			fmt.Fprintln(out, "===========")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(env *cli.Env) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	if _, err := os.Stat(config.ConfigPath()); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: config.ConfigPath()})
	} else {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: "not found — using defaults"})
	}

	var problems []string
	status := "ok"
	for _, issue := range config.Validate() {
		problems = append(problems, issue.Key+": "+issue.Message)
		if issue.Severity == "error" {
			status = "error"
		} else if status == "ok" {
			status = "warning"
		}
	}
	msg := "valid"
	if len(problems) > 0 {
		msg = strings.Join(problems, "; ")
	}
	checks = append(checks, Check{Name: "Config Values", Status: status, Message: msg})

	checks = append(checks, engineCheck(env))

	pager := "less"
	if fields := strings.Fields(os.Getenv("PAGER")); len(fields) > 0 {
		pager = fields[0]
	}
	if _, err := exec.LookPath(pager); err == nil {
		checks = append(checks, Check{Name: "Pager", Status: "ok", Message: pager})
	} else {
		checks = append(checks, Check{Name: "Pager", Status: "warning", Message: pager + " not found — 'book read --pager' prints directly"})
	}

	if pid, err := watch.ReadPIDFile(watch.DefaultConfigDir()); err == nil {
		checks = append(checks, Check{Name: "Watcher", Status: "ok", Message: fmt.Sprintf("PID file for %d", pid)})
	} else {
		checks = append(checks, Check{Name: "Watcher", Status: "ok", Message: "not running"})
	}

	return checks
}

// engineCheck writes a small workbook in memory and calculates a formula.
func engineCheck(env *cli.Env) Check {
	fail := func(err error) Check {
		return Check{Name: "Workbook Engine", Status: "error", Message: err.Error()}
	}

	reg := xl.NewRegistry(env.Logger)
	defer reg.QuitAll()

	app, err := reg.Launch(xl.AppOptions{AddBook: true})
	if err != nil {
		return fail(err)
	}
	book := app.Books()[0]
	sheet, err := book.SheetAt(1)
	if err != nil {
		return fail(err)
	}
	if err := sheet.Range("A1:B3", "").SetValues([][]any{{1, 4}, {2, 5}, {3, 6}}); err != nil {
		return fail(err)
	}
	cell := sheet.Range("C1", "")
	if err := cell.SetFormula("SUMPRODUCT(A1:A3,B1:B3)"); err != nil {
		return fail(err)
	}
	rows, err := cell.Calculate()
	if err != nil {
		return fail(err)
	}
	if got := rows[0][0]; got != "32" {
		return fail(fmt.Errorf("SUMPRODUCT returned %q, expected 32", got))
	}
	return Check{Name: "Workbook Engine", Status: "ok", Message: "calculated SUMPRODUCT in a blank workbook"}
}
