package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"nfsh/pkg/escseq"
)

// RunInteractive drives the raw-terminal REPL until an exit command or EOF
// on the input stream.
func (s *Shell) RunInteractive() error {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw terminal: %w", err)
	}
	defer func() { _ = term.Restore(fd, state) }()

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(screen, "")
	t.AutoCompleteCallback = s.autocomplete

	ui := &termUI{out: t}
	// Route stray log lines through the terminal so they do not tear the
	// prompt while in raw mode.
	s.log.SetOutput(t)
	defer s.log.SetOutput(os.Stderr)

	ui.Printf("%s", escseq.GreenBoldText(fmt.Sprintf(
		"Connected to %s:%s, type \"help\" to list commands",
		s.engine.Host(), s.engine.Export())))

	for {
		t.SetPrompt(s.prompt())
		line, rErr := t.ReadLine()
		if rErr != nil {
			if rErr != io.EOF {
				ui.PrintErrorf("read input: %v", rErr)
			}
			return nil
		}
		if dErr := s.Dispatch(line, ui); errors.Is(dErr, ErrExitShell) {
			ui.Printf("Session closed")
			return nil
		}
	}
}

// autocomplete completes command names when TAB is hit on the first word.
func (s *Shell) autocomplete(line string, pos int, key rune) (string, int, bool) {
	if key != 9 || pos != len(line) {
		return line, pos, false
	}
	if strings.ContainsAny(line, " \t") {
		return line, pos, false
	}

	newLine, newPos := s.registry.Autocomplete(line)
	return newLine, newPos, true
}
