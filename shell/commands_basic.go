package shell

import (
	"fmt"
	"os"
	"strconv"
)

type exitCmd struct{}

func (c *exitCmd) Name() string        { return "exit" }
func (c *exitCmd) Description() string { return "Close the session" }
func (c *exitCmd) Usage() string       { return "exit" }

func (c *exitCmd) Run(_ *Shell, args []string, _ UserInterface) error {
	if len(args) != 0 {
		return usageErrorf("exit takes no arguments")
	}
	return ErrExitShell
}

type cdCmd struct{}

func (c *cdCmd) Name() string        { return "cd" }
func (c *cdCmd) Description() string { return "Change the remote working directory" }
func (c *cdCmd) Usage() string       { return "cd [dir]" }

func (c *cdCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) > 1 {
		return usageErrorf("cd takes at most one argument")
	}

	target := "/"
	if len(args) == 1 {
		target = s.canon(args[0])
	}

	// The working directory is a path string, not a held handle, so it is
	// validated here and again on every later use.
	dir, err := s.isDir(target)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	if !dir {
		return fmt.Errorf("%s: not a directory", target)
	}

	s.cwd = target
	return nil
}

type pwdCmd struct{}

func (c *pwdCmd) Name() string        { return "pwd" }
func (c *pwdCmd) Description() string { return "Print the remote working directory" }
func (c *pwdCmd) Usage() string       { return "pwd" }

func (c *pwdCmd) Run(s *Shell, args []string, ui UserInterface) error {
	if len(args) != 0 {
		return usageErrorf("pwd takes no arguments")
	}
	ui.Printf("%s", s.cwd)
	return nil
}

type lcdCmd struct{}

func (c *lcdCmd) Name() string        { return "lcd" }
func (c *lcdCmd) Description() string { return "Change the local working directory" }
func (c *lcdCmd) Usage() string       { return "lcd <dir>" }

func (c *lcdCmd) Run(_ *Shell, args []string, _ UserInterface) error {
	if len(args) != 1 {
		return usageErrorf("lcd takes exactly one argument")
	}
	if err := os.Chdir(args[0]); err != nil {
		return err
	}
	return nil
}

type lpwdCmd struct{}

func (c *lpwdCmd) Name() string        { return "lpwd" }
func (c *lpwdCmd) Description() string { return "Print the local working directory" }
func (c *lpwdCmd) Usage() string       { return "lpwd" }

func (c *lpwdCmd) Run(_ *Shell, args []string, ui UserInterface) error {
	if len(args) != 0 {
		return usageErrorf("lpwd takes no arguments")
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	ui.Printf("%s", wd)
	return nil
}

type umaskCmd struct{}

func (c *umaskCmd) Name() string        { return "umask" }
func (c *umaskCmd) Description() string { return "Show or set the remote file creation mask" }
func (c *umaskCmd) Usage() string       { return "umask [octal-mask]" }

func (c *umaskCmd) Run(s *Shell, args []string, ui UserInterface) error {
	switch len(args) {
	case 0:
		ui.Printf("%04o", s.umask)
		return nil
	case 1:
		mask, err := strconv.ParseUint(args[0], 8, 32)
		if err != nil || mask > 0o777 {
			return usageErrorf("invalid mask %q, expected octal up to 777", args[0])
		}
		s.umask = uint32(mask)
		return nil
	default:
		return usageErrorf("umask takes at most one argument")
	}
}
