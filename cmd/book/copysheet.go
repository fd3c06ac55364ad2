package book

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/xl"
)

type copyResult struct {
	Source string `json:"source"`
	Copy   string `json:"copy"`
	Index  int    `json:"index"`
	Output string `json:"output,omitempty"`
}

func newCopySheetCommand(env *cli.Env) *cobra.Command {
	var (
		sheetName string
		before    int
		after     int
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "copy-sheet <file.xlsx>",
		Short: "Duplicate a worksheet within its workbook",
		Long: `Copies a sheet and names the copy like a spreadsheet application would,
e.g. "Flows (2)". --before and --after take 1-based tab positions; with
neither the copy goes last. The workbook is written to --output, or saved in
place when book.read_only is false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			b, err := env.OpenBook(args[0])
			if err != nil {
				return err
			}
			sheet, err := cli.ResolveSheet(b, sheetName)
			if err != nil {
				return err
			}

			copied, err := sheet.Copy(xl.CopyOptions{Before: before, After: after})
			if err != nil {
				return err
			}
			index, err := copied.Index()
			if err != nil {
				return err
			}

			if outPath != "" {
				err = b.SaveAs(outPath)
			} else {
				err = b.Save()
			}
			if errors.Is(err, xl.ErrReadOnly) {
				return fmt.Errorf("%w — pass --output or run 'xlnt config set book.read_only false'", err)
			} else if err != nil {
				return err
			}

			result := copyResult{Source: sheet.Name(), Copy: copied.Name(), Index: index, Output: b.FullName()}
			if jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "book copy-sheet", result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Copied %q to %q at position %d\n", result.Source, result.Copy, result.Index)
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Saved %s\n", result.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to copy (default: first sheet)")
	cmd.Flags().IntVar(&before, "before", 0, "Place the copy before this 1-based position")
	cmd.Flags().IntVar(&after, "after", 0, "Place the copy after this 1-based position")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the workbook to this path instead of saving in place")

	return cmd
}
