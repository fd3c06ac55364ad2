// Package shell provides the "xlnt shell" interactive REPL command.
package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/cli"
	"github.com/klytics/xlnt/internal/config"
	shellpkg "github.com/klytics/xlnt/internal/shell"
)

// NewRoot builds a fresh command tree sharing env. The root package
// provides it so commands run in-process without an import cycle.
type NewRoot func(env *cli.Env) *cobra.Command

// NewCommand creates the "shell" command.
func NewCommand(env *cli.Env, newRoot NewRoot) *cobra.Command {
	var (
		evalCmd string
		book    string
		sheet   string
	)

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive xlnt shell",
		Long: `Start an interactive REPL with history and tab completion.

Workbooks stay open between commands, so a large model is read once per
session. 'use <file>' and 'sheet <name>' set defaults for book and finance
commands; 'close' drops open workbooks so the next command re-reads them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := shellpkg.NewSession(runner(env, newRoot), config.Dir())
			session.Release = env.Close
			session.DefaultBook = book
			session.DefaultSheet = sheet

			if evalCmd != "" {
				output, err := session.Eval(cmd.Context(), evalCmd)
				fmt.Fprint(cmd.OutOrStdout(), output)
				return err
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	cmd.Flags().StringVar(&book, "book", "", "Default workbook for the session")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Default sheet for the session")
	return cmd
}

func runner(env *cli.Env, newRoot NewRoot) shellpkg.CommandRunner {
	return func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		if len(args) > 0 && args[0] == "shell" {
			return fmt.Errorf("already in a shell")
		}
		root := newRoot(env)
		root.SetArgs(args)
		root.SetOut(stdout)
		root.SetErr(stderr)
		return root.ExecuteContext(ctx)
	}
}
