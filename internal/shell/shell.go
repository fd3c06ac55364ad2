// Package shell provides the interactive xlnt REPL. Workbooks opened by one
// command stay open for the next, so a session reads a large model once.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

// CommandRunner executes an xlnt command line and writes its output.
// The cmd/shell package provides it to avoid an import cycle.
type CommandRunner func(ctx context.Context, args []string, stdout, stderr io.Writer) error

// Session is one interactive shell session.
type Session struct {
	Runner CommandRunner
	// Release closes the workbooks kept open by the session.
	Release func() error

	DefaultBook    string
	DefaultSheet   string
	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of top-level commands for completion.
	KnownCommands []string

	out io.Writer
}

// NewSession creates a session keeping its history under dir.
func NewSession(runner CommandRunner, dir string) *Session {
	return &Session{
		Runner:      runner,
		HistoryFile: filepath.Join(dir, "shell_history"),
		StartTime:   time.Now(),
		KnownCommands: []string{
			"date", "finance", "book", "watch",
			"config", "doctor", "completion", "version",
			"help", "exit", "quit", "history", "use", "sheet", "close",
		},
		out: os.Stdout,
	}
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	if s.Runner == nil {
		return fmt.Errorf("shell runner not configured")
	}
	os.MkdirAll(filepath.Dir(s.HistoryFile), 0755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "xlnt> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	defer s.release()

	fmt.Fprintln(s.out, "xlnt interactive shell")
	fmt.Fprintln(s.out, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.CommandHistory = append(s.CommandHistory, line)

		if done := s.handleLine(ctx, line); done {
			fmt.Fprintf(s.out, "\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			return nil
		}
		rl.SetPrompt(s.prompt())
	}
	return nil
}

// handleLine runs a built-in or an xlnt command. It reports whether the
// session should end.
func (s *Session) handleLine(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "exit", "quit":
		return true
	case "help":
		s.printHelp()
	case "history":
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(s.out, "  %d  %s\n", i+1, cmd)
		}
	case "use":
		if len(fields) == 1 {
			if s.DefaultBook == "" {
				fmt.Fprintln(s.out, "No default workbook")
			} else {
				fmt.Fprintf(s.out, "Default workbook: %s\n", s.DefaultBook)
			}
			return false
		}
		s.DefaultBook = strings.TrimSpace(strings.TrimPrefix(line, "use"))
		fmt.Fprintf(s.out, "Default workbook: %s\n", s.DefaultBook)
	case "sheet":
		s.DefaultSheet = strings.TrimSpace(strings.TrimPrefix(line, "sheet"))
		if s.DefaultSheet == "" {
			fmt.Fprintln(s.out, "Default sheet cleared")
		} else {
			fmt.Fprintf(s.out, "Default sheet: %s\n", s.DefaultSheet)
		}
	case "close":
		if err := s.release(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		} else {
			fmt.Fprintln(s.out, "Closed all workbooks")
		}
	default:
		output, err := s.Eval(ctx, line)
		if output != "" {
			fmt.Fprint(s.out, output)
			if !strings.HasSuffix(output, "\n") {
				fmt.Fprintln(s.out)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}
	return false
}

// Eval runs a single command string and returns its output.
func (s *Session) Eval(ctx context.Context, command string) (string, error) {
	if s.Runner == nil {
		return "", fmt.Errorf("shell runner not configured")
	}

	args, err := SplitArgs(command)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	args = s.expand(args)

	var stdout, stderr bytes.Buffer
	err = s.Runner(ctx, args, &stdout, &stderr)

	output := stdout.String()
	s.LastOutput = output

	if errOut := stderr.String(); errOut != "" && err != nil {
		return output, fmt.Errorf("%s", strings.TrimSpace(errOut))
	}
	return output, err
}

// sheetCommands are the subcommands taking --sheet.
var sheetCommands = map[string]bool{
	"read": true, "calc": true, "copy-sheet": true,
	"xnpv": true, "xirr": true, "sumproduct": true,
}

// expand fills in the default workbook and sheet where a command needs
// them and the user left them out.
func (s *Session) expand(args []string) []string {
	if len(args) < 2 || (args[0] != "book" && args[0] != "finance") {
		return args
	}
	out := append([]string(nil), args...)
	usesBook := false

	switch args[0] {
	case "book":
		if len(out) == 2 || strings.HasPrefix(out[2], "-") {
			if s.DefaultBook != "" {
				out = append(out[:2], append([]string{s.DefaultBook}, out[2:]...)...)
			}
		}
		usesBook = len(out) > 2 && !strings.HasPrefix(out[2], "-")
	case "finance":
		usesBook = hasFlag(out, "--book")
		if !usesBook && s.DefaultBook != "" && hasFlag(out, "--range") && !hasFlag(out, "--flows") {
			out = append(out, "--book", s.DefaultBook)
			usesBook = true
		}
	}

	if usesBook && s.DefaultSheet != "" && sheetCommands[out[1]] && !hasFlag(out, "--sheet") {
		out = append(out, "--sheet", s.DefaultSheet)
	}
	return out
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

// SplitArgs splits a command line on spaces, keeping single- or
// double-quoted text together.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, cmd := range s.KnownCommands {
			if strings.HasPrefix(cmd, parts[0]) {
				matches = append(matches, cmd)
			}
		}
		sort.Strings(matches)
		return matches
	}

	if strings.HasPrefix(parts[len(parts)-1], "-") && !strings.HasSuffix(input, " ") {
		return []string{"--json", "--verbose", "--help", "--sheet", "--range"}
	}

	subcommands := subcommandsFor(parts[0])
	if len(parts) == 1 {
		return subcommands
	}
	if len(parts) == 2 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, sub := range subcommands {
			if strings.HasPrefix(sub, parts[1]) {
				matches = append(matches, sub)
			}
		}
		return matches
	}
	return nil
}

func subcommandsFor(parent string) []string {
	subs := map[string][]string{
		"date":       {"edate", "eomonth"},
		"finance":    {"xnpv", "xirr", "sumproduct"},
		"book":       {"info", "read", "calc", "copy-sheet"},
		"watch":      {"start", "stop", "status"},
		"config":     {"show", "keys", "get", "set", "reset", "path", "validate", "env"},
		"completion": {"bash", "zsh", "fish", "powershell"},
	}
	return subs[parent]
}

func (s *Session) prompt() string {
	if s.DefaultBook == "" {
		return "xlnt> "
	}
	p := filepath.Base(s.DefaultBook)
	if s.DefaultSheet != "" {
		p += "!" + s.DefaultSheet
	}
	return fmt.Sprintf("xlnt [%s]> ", p)
}

func (s *Session) release() error {
	if s.Release == nil {
		return nil
	}
	return s.Release()
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  Functions:  date edate|eomonth, finance xnpv|xirr|sumproduct")
	fmt.Fprintln(s.out, "  Workbooks:  book info|read|calc|copy-sheet, watch")
	fmt.Fprintln(s.out, "  System:     config, completion, version")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Shell commands:")
	fmt.Fprintln(s.out, "  use <file>     set the default workbook")
	fmt.Fprintln(s.out, "  sheet <name>   set the default sheet")
	fmt.Fprintln(s.out, "  close          close open workbooks (re-read from disk next time)")
	fmt.Fprintln(s.out, "  history        show command history")
	fmt.Fprintln(s.out, "  exit           exit the shell")
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		var subItems []readline.PrefixCompleterInterface
		for _, sub := range subcommandsFor(cmd) {
			subItems = append(subItems, readline.PcItem(sub))
		}
		items = append(items, readline.PcItem(cmd, subItems...))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
