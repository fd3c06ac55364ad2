package book

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/output"
	"github.com/klytics/xlnt/internal/xl"
)

type sheetInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Used  string `json:"used,omitempty"`
}

type bookInfo struct {
	Name     string          `json:"name"`
	FullName string          `json:"fullName"`
	ReadOnly bool            `json:"readOnly"`
	Sheets   []sheetInfo     `json:"sheets"`
	Calc     xl.CalcSettings `json:"calc"`
}

func newInfoCommand(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.xlsx>",
		Short: "Show the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			b, err := env.OpenBook(args[0])
			if err != nil {
				return err
			}
			sheets, err := b.Sheets()
			if err != nil {
				return err
			}

			info := bookInfo{
				Name:     b.Name(),
				FullName: b.FullName(),
				ReadOnly: b.ReadOnly(),
				Calc:     b.App().CalcSettings(),
			}
			for i, s := range sheets {
				si := sheetInfo{Index: i + 1, Name: s.Name()}
				if used, err := s.UsedRange(); err == nil && used != nil {
					si.Used = used.Address()
				}
				info.Sheets = append(info.Sheets, si)
			}

			if jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "book info", info)
			}

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			dim := color.New(color.FgHiBlack)
			bold.Fprintf(out, "%s\n", info.Name)
			dim.Fprintf(out, "  %s\n", info.FullName)
			if info.ReadOnly {
				dim.Fprintln(out, "  read-only")
			}
			fmt.Fprintln(out)
			for _, s := range info.Sheets {
				used := s.Used
				if used == "" {
					used = "(empty)"
				}
				fmt.Fprintf(out, "  %2d  %-31s  %s\n", s.Index, s.Name, used)
			}
			return nil
		},
	}
}
