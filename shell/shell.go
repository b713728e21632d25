// Package shell implements the interactive console over a remote
// filesystem engine: a command registry, a raw-terminal REPL with history
// and tab completion, and a batch dispatcher for one-shot invocations.
package shell

import (
	"errors"
	"fmt"
	"os/user"
	"strings"

	"nfsh/pkg/conf"
	"nfsh/pkg/escline"
	"nfsh/pkg/escseq"
	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
	"nfsh/pkg/slog"
)

// Shell holds the per-session state every command operates on. The remote
// working directory is purely client-side: it is a canonical path string,
// never a held handle, so a stale directory only surfaces when used.
type Shell struct {
	engine   rfs.Engine
	registry *CommandRegistry
	log      *slog.Logger

	user  string
	cwd   string
	umask uint32
}

// New wires a session around an initialized engine.
func New(engine rfs.Engine, logger *slog.Logger) *Shell {
	s := &Shell{
		engine:   engine,
		registry: NewCommandRegistry(),
		log:      logger,
		user:     localUser(),
		cwd:      "/",
		umask:    conf.DefaultUmask,
	}
	s.registerCommands()
	return s
}

func localUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "nobody"
}

// SetUmask overrides the starting file creation mask.
func (s *Shell) SetUmask(mask uint32) {
	s.umask = mask & 0o777
}

// Cwd returns the session's remote working directory.
func (s *Shell) Cwd() string {
	return s.cwd
}

// canon resolves a user-supplied path against the working directory into
// the canonical absolute form the engine expects.
func (s *Shell) canon(path string) string {
	return rpath.Canonicalize(s.cwd, path)
}

// isDir stats a canonical path and reports whether it is a directory.
func (s *Shell) isDir(path string) (bool, error) {
	attr, err := s.engine.GetAttr(path)
	if err != nil {
		return false, err
	}
	return attr.IsDir(), nil
}

func (s *Shell) prompt() string {
	where := fmt.Sprintf("%s@%s", s.user, s.engine.Host())
	return fmt.Sprintf("%s:%s:%s%s ",
		escseq.CyanBoldText(where),
		s.engine.Export(),
		s.cwd,
		escseq.CyanBoldText(">"),
	)
}

// Dispatch tokenizes and runs one input line. Every failure is reported
// through ui and absorbed; only ErrExitShell reaches the caller. A panic
// inside a command is logged and the session survives it.
func (s *Shell) Dispatch(line string, ui UserInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("command panic: %v", r)
			ui.PrintErrorf("internal error: %v", r)
			err = nil
		}
	}()

	args, fErr := escline.Fields(line)
	if fErr != nil {
		ui.PrintErrorf("%v", fErr)
		return nil
	}
	if len(args) == 0 {
		return nil
	}

	cmd, ok := s.registry.Get(args[0])
	if !ok {
		ui.PrintErrorf("Unknown command %q, type \"help\" to list commands", args[0])
		return nil
	}

	if rErr := cmd.Run(s, args[1:], ui); rErr != nil {
		if errors.Is(rErr, ErrExitShell) {
			return rErr
		}
		var uErr *usageError
		if errors.As(rErr, &uErr) {
			if uErr.reason != "" {
				ui.PrintErrorf("%s", uErr.reason)
			}
			ui.PrintErrorf("Usage: %s", cmd.Usage())
			return nil
		}
		ui.PrintErrorf("%s: %v", cmd.Name(), rErr)
	}
	return nil
}

// RunBatch executes a semicolon-separated command string against the
// session and returns once every segment ran or an exit was requested.
func (s *Shell) RunBatch(script string, ui UserInterface) {
	for _, segment := range strings.Split(script, ";") {
		line := strings.TrimSpace(segment)
		if line == "" {
			continue
		}
		if err := s.Dispatch(line, ui); errors.Is(err, ErrExitShell) {
			return
		}
	}
}

func (s *Shell) registerCommands() {
	for _, cmd := range []Command{
		&helpCmd{},
		&exitCmd{},
		&cdCmd{},
		&pwdCmd{},
		&lcdCmd{},
		&lpwdCmd{},
		&lsCmd{},
		&catCmd{},
		&getCmd{},
		&putCmd{},
		&mkdirCmd{},
		&rmdirCmd{},
		&rmCmd{},
		&mvCmd{},
		&chmodCmd{},
		&chownCmd{},
		&umaskCmd{},
		&dfCmd{},
	} {
		s.registry.Register(cmd)
	}
}
