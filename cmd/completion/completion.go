// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for xlnt.

Install instructions:
  Bash:       xlnt completion bash > /etc/bash_completion.d/xlnt
              echo 'source <(xlnt completion bash)' >> ~/.bashrc
  Zsh:        xlnt completion zsh > ~/.zsh/completions/_xlnt
  Fish:       xlnt completion fish > ~/.config/fish/completions/xlnt.fish
  PowerShell: xlnt completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# xlnt bash completion")
				fmt.Fprintln(out, "# Install: xlnt completion bash > /etc/bash_completion.d/xlnt")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# xlnt zsh completion")
				fmt.Fprintln(out, "# Install: xlnt completion zsh > ~/.zsh/completions/_xlnt")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# xlnt fish completion")
				fmt.Fprintln(out, "# Install: xlnt completion fish > ~/.config/fish/completions/xlnt.fish")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# xlnt PowerShell completion")
				fmt.Fprintln(out, "# Install: xlnt completion powershell >> $PROFILE")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
