package destination

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter supplies a directory chosen by the user. It is the CLI
// equivalent of a "save as" dialog and is only consulted when the caller is
// interactive.
type Prompter interface {
	// Interactive reports whether prompting is possible at all.
	Interactive() bool

	// PromptDir asks the user for a directory.
	PromptDir() (string, error)
}

// TerminalPrompter reads the directory from a terminal. Interactive is
// false when stdin is not a TTY, so scheduled runs and pipes never block on
// a prompt.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

func (p *TerminalPrompter) Interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

func (p *TerminalPrompter) PromptDir() (string, error) {
	fmt.Fprint(p.out, "Directory to save the backup in: ")
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading destination: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var _ Prompter = (*TerminalPrompter)(nil)
