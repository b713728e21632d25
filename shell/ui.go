package shell

import (
	"fmt"
	"io"
	"os"

	"nfsh/pkg/escseq"
)

// UserInterface abstracts where a command's output goes, so the same
// commands serve the raw-terminal console and one-shot batch runs.
type UserInterface interface {
	// Writer is the destination for command payload output, e.g. cat
	// streaming a remote file.
	Writer() io.Writer
	Printf(format string, args ...interface{})
	PrintErrorf(format string, args ...interface{})
}

// termUI writes through an x/term Terminal, which keeps the prompt intact
// while the terminal is in raw mode.
type termUI struct {
	out io.Writer
}

func (u *termUI) Writer() io.Writer {
	return u.out
}

func (u *termUI) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(u.out, format+"\n", args...)
}

func (u *termUI) PrintErrorf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(u.out, "%s\n", escseq.RedBoldText(fmt.Sprintf(format, args...)))
}

// stdUI serves batch mode: payload and messages to stdout, diagnostics to
// stderr, no escape sequences.
type stdUI struct{}

// NewStdUI returns a UserInterface over the process's standard streams.
func NewStdUI() UserInterface {
	return &stdUI{}
}

func (u *stdUI) Writer() io.Writer {
	return os.Stdout
}

func (u *stdUI) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func (u *stdUI) PrintErrorf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}
