// Package config provides the "xlnt config" commands over the finance, book,
// calc, log and output settings.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlnt/internal/config"
	"github.com/klytics/xlnt/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage solver, workbook and output settings",
		Long: `View and change the settings xlnt reads from ~/.xlnt/config.yaml.
XLNT_<SECTION>_<KEY> environment variables override the file, e.g.
XLNT_CALC_ITERATIVE=true.

Settings:
` + keyHelp() + `
Example:
  xlnt config set finance.guess 0.05
  xlnt config set calc.iterative true
  xlnt config get book.read_only`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newKeysCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())

	return cmd
}

func keyHelp() string {
	var sb strings.Builder
	for _, s := range config.Keys() {
		fmt.Fprintf(&sb, "  %-24s %s (default %v)\n", s.Key, s.Description, s.Default)
	}
	return sb.String()
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the settings in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "config show", cfg)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig())
			return nil
		},
	}
}

func newKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every setting with its default and current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			keys := config.Keys()
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "config keys", keys)
			}

			rows := [][]string{{"Key", "Value", "Default", "Description"}}
			for _, s := range keys {
				rows = append(rows, []string{s.Key, config.Get(s.Key), fmt.Sprint(s.Default), s.Description})
			}
			return output.NewWriter(cmd.OutOrStdout(), false, 0).WriteTable(rows)
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting and save it",
		Long: `Change a setting and write it to ~/.xlnt/config.yaml. The value must
parse as the type of the default: true/false, a whole number or a number.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], config.Get(args[0]))
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.Known(args[0]) {
				return fmt.Errorf("unknown config key %q — run 'xlnt config keys' for the list of keys", args[0])
			}
			if _, err := config.Load(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the config file and return to the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s — defaults restored\n", config.ConfigPath())
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that solver, calc and output settings are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			issues := config.Validate()
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "config validate", issues)
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				color.New(color.FgGreen).Fprintf(out, "All %d settings are valid\n", len(config.Keys()))
				return nil
			}

			described := map[string]string{}
			for _, s := range config.Keys() {
				described[s.Key] = s.Description
			}

			failed := 0
			for _, issue := range issues {
				c := color.New(color.FgYellow)
				if issue.Severity == "error" {
					c = color.New(color.FgRed)
					failed++
				}
				c.Fprintf(out, "%-7s %s = %s\n", issue.Severity, issue.Key, config.Get(issue.Key))
				fmt.Fprintf(out, "        %s (%s)\n", issue.Message, described[issue.Key])
				if issue.Fix != "" {
					fmt.Fprintf(out, "        fix: %s\n", issue.Fix)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d setting(s) would make commands fail — see above", failed)
			}
			return nil
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Print the settings as XLNT_* export lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			env := config.ToEnv()
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.PrintJSON(cmd.OutOrStdout(), "config env", env)
			}

			names := make([]string, 0, len(env))
			for k := range env {
				names = append(names, k)
			}
			sort.Strings(names)
			for _, k := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "export %s=%q\n", k, env[k])
			}
			return nil
		},
	}
}
