package shell

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrExitShell indicates the session should terminate. It is the only
// command error that propagates past the dispatcher.
var ErrExitShell = errors.New("exit shell")

// Command interface defines the structure for all shell commands
type Command interface {
	Name() string
	Description() string
	Usage() string
	// Run executes the command.
	// s: shell session providing the engine and working-directory state
	// args: the arguments passed to the command
	// ui: user interface for displaying output
	Run(s *Shell, args []string, ui UserInterface) error
}

// usageError marks an argument-contract violation; the dispatcher answers
// it with the command's usage line instead of a diagnostic.
type usageError struct {
	reason string
}

func (e *usageError) Error() string {
	return e.reason
}

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{reason: fmt.Sprintf(format, args...)}
}

// CommandRegistry holds the registered commands
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a new CommandRegistry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get retrieves a command by name
func (r *CommandRegistry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns a sorted list of command names
func (r *CommandRegistry) List() []string {
	var names []string
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Autocomplete suggests commands based on input
func (r *CommandRegistry) Autocomplete(input string) (string, int) {
	var cmd string
	var substring string
	var count int

	for _, c := range r.List() {
		if strings.HasPrefix(c, input) {
			cmd = c
			substring = strings.SplitAfter(c, input)[0]
			count++
		} else if count == 1 {
			return cmd, len(cmd)
		}
	}

	if count == 1 {
		return cmd, len(cmd)
	}

	if count == 0 {
		substring = input
	}

	return substring, len(substring)
}
