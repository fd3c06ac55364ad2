package output

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultPageHeight is used when the terminal height is unknown.
const DefaultPageHeight = 40

// ShouldPage reports whether content written to dest is longer than height
// lines and dest is a terminal.
func ShouldPage(dest io.Writer, content string, height int) bool {
	if !isTerminal(dest) {
		return false
	}
	if height <= 0 {
		height = DefaultPageHeight
	}
	return strings.Count(content, "\n") > height
}

// Page pipes content through $PAGER, or "less -R" when it is unset.
func Page(dest io.Writer, content string) error {
	args := []string{"less", "-R"}
	if p := strings.Fields(os.Getenv("PAGER")); len(p) > 0 {
		args = p
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = dest
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func isTerminal(dest io.Writer) bool {
	f, ok := dest.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
