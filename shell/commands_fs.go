package shell

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
)

type mkdirCmd struct{}

func (c *mkdirCmd) Name() string        { return "mkdir" }
func (c *mkdirCmd) Description() string { return "Create a remote directory" }
func (c *mkdirCmd) Usage() string       { return "mkdir <dir>" }

func (c *mkdirCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 1 {
		return usageErrorf("mkdir takes exactly one argument")
	}
	return s.engine.Mkdir(s.canon(args[0]), 0o777&^s.umask)
}

type rmdirCmd struct{}

func (c *rmdirCmd) Name() string        { return "rmdir" }
func (c *rmdirCmd) Description() string { return "Remove an empty remote directory" }
func (c *rmdirCmd) Usage() string       { return "rmdir <dir>" }

func (c *rmdirCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 1 {
		return usageErrorf("rmdir takes exactly one argument")
	}
	return s.engine.Rmdir(s.canon(args[0]))
}

type rmCmd struct{}

func (c *rmCmd) Name() string        { return "rm" }
func (c *rmCmd) Description() string { return "Remove a remote file" }
func (c *rmCmd) Usage() string       { return "rm <file>" }

func (c *rmCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 1 {
		return usageErrorf("rm takes exactly one argument")
	}
	return s.engine.Remove(s.canon(args[0]))
}

type chmodCmd struct{}

func (c *chmodCmd) Name() string        { return "chmod" }
func (c *chmodCmd) Description() string { return "Change remote permission bits" }
func (c *chmodCmd) Usage() string       { return "chmod <octal-mode> <path>" }

func (c *chmodCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 2 {
		return usageErrorf("chmod takes a mode and a path")
	}

	mode, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil || mode > 0o7777 {
		return usageErrorf("invalid mode %q, expected octal up to 7777", args[0])
	}
	return s.engine.Chmod(s.canon(args[1]), uint32(mode))
}

type chownCmd struct{}

func (c *chownCmd) Name() string        { return "chown" }
func (c *chownCmd) Description() string { return "Change remote ownership" }
func (c *chownCmd) Usage() string       { return "chown <uid>[:<gid>] <path>" }

func (c *chownCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 2 {
		return usageErrorf("chown takes an owner spec and a path")
	}

	uid, gid, err := parseOwner(args[0])
	if err != nil {
		return usageErrorf("%v", err)
	}
	return s.engine.Chown(s.canon(args[1]), uid, gid)
}

// parseOwner accepts "uid", "uid:gid" and ":gid"; a missing side stays -1,
// meaning unchanged.
func parseOwner(spec string) (int, int, error) {
	uid, gid := -1, -1

	uidPart, gidPart, hasColon := strings.Cut(spec, ":")
	if uidPart == "" && gidPart == "" {
		return 0, 0, fmt.Errorf("invalid owner %q", spec)
	}
	if !hasColon {
		gidPart = ""
	}

	if uidPart != "" {
		n, err := strconv.ParseUint(uidPart, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid uid %q", uidPart)
		}
		uid = int(n)
	}
	if gidPart != "" {
		n, err := strconv.ParseUint(gidPart, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid gid %q", gidPart)
		}
		gid = int(n)
	}
	return uid, gid, nil
}

type dfCmd struct{}

func (c *dfCmd) Name() string        { return "df" }
func (c *dfCmd) Description() string { return "Show remote filesystem usage" }
func (c *dfCmd) Usage() string       { return "df" }

func (c *dfCmd) Run(s *Shell, args []string, ui UserInterface) error {
	if len(args) != 0 {
		return usageErrorf("df takes no arguments")
	}

	stat, err := s.engine.StatFS()
	if err != nil {
		return err
	}

	used := stat.TotalBytes - stat.FreeBytes
	tw := tabwriter.NewWriter(ui.Writer(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Filesystem\tSize\tUsed\tAvail\tFiles\tFfree\n")
	_, _ = fmt.Fprintf(tw, "%s:%s\t%s\t%s\t%s\t%d\t%d\n",
		s.engine.Host(),
		s.engine.Export(),
		humanSize(stat.TotalBytes),
		humanSize(used),
		humanSize(stat.AvailBytes),
		stat.TotalFiles,
		stat.FreeFiles,
	)
	return tw.Flush()
}

func humanSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
