package shell

import (
	"errors"
	"fmt"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
)

type mvCmd struct{}

func (c *mvCmd) Name() string        { return "mv" }
func (c *mvCmd) Description() string { return "Rename a remote file or directory" }
func (c *mvCmd) Usage() string       { return "mv <source> <destination>" }

func (c *mvCmd) Run(s *Shell, args []string, _ UserInterface) error {
	if len(args) != 2 {
		return usageErrorf("mv takes exactly two arguments")
	}

	src := s.canon(args[0])
	dst := s.canon(args[1])

	// Moving onto an existing directory means moving into it.
	attr, err := s.engine.GetAttr(dst)
	switch {
	case err == nil:
		if attr.IsDir() {
			dst = rpath.Join(dst, rpath.Base(src))
		}
	case errors.Is(err, rfs.ErrNotExist):
		// plain rename
	default:
		return fmt.Errorf("%s: %w", dst, err)
	}

	if rErr := s.engine.Rename(src, dst); rErr != nil {
		return fmt.Errorf("rename %s to %s: %w", src, dst, rErr)
	}
	return nil
}
