package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nfsh/pkg/rpath"
)

type getCmd struct{}

func (c *getCmd) Name() string        { return "get" }
func (c *getCmd) Description() string { return "Download a remote file" }
func (c *getCmd) Usage() string       { return "get <remote-file> [local-file | -]" }

func (c *getCmd) Run(s *Shell, args []string, ui UserInterface) error {
	if len(args) < 1 || len(args) > 2 {
		return usageErrorf("get takes a remote file and an optional destination")
	}

	remote := s.canon(args[0])
	local := rpath.Base(remote)
	if len(args) == 2 {
		local = args[1]
	}

	if local == "-" {
		return s.download(remote, ui.Writer())
	}

	// A destination that is an existing local directory receives the file
	// under its remote basename.
	if fi, err := os.Stat(local); err == nil && fi.IsDir() {
		local = filepath.Join(local, rpath.Base(remote))
	}

	f, err := os.Create(local)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if dErr := s.download(remote, f); dErr != nil {
		return dErr
	}
	ui.Printf("%s -> %s", remote, local)
	return nil
}

type catCmd struct{}

func (c *catCmd) Name() string        { return "cat" }
func (c *catCmd) Description() string { return "Print a remote file" }
func (c *catCmd) Usage() string       { return "cat <remote-file>" }

func (c *catCmd) Run(s *Shell, args []string, ui UserInterface) error {
	if len(args) != 1 {
		return usageErrorf("cat takes exactly one argument")
	}
	return s.download(s.canon(args[0]), ui.Writer())
}

// download streams a remote file into w, one read-block-sized request at a
// time, strictly in offset order. The size comes from a fresh attribute
// snapshot; a file that shrinks mid-transfer surfaces as a short read.
func (s *Shell) download(remote string, w io.Writer) error {
	attr, err := s.engine.GetAttr(remote)
	if err != nil {
		return fmt.Errorf("%s: %w", remote, err)
	}
	if attr.IsDir() {
		return fmt.Errorf("%s: is a directory", remote)
	}

	block := uint64(s.engine.ReadBlockSize())
	for offset := uint64(0); offset < attr.Size; {
		count := block
		if remaining := attr.Size - offset; remaining < count {
			count = remaining
		}

		data, _, rErr := s.engine.Read(remote, offset, uint32(count))
		if rErr != nil {
			return fmt.Errorf("read %s at offset %d: %w", remote, offset, rErr)
		}
		if len(data) == 0 {
			return fmt.Errorf("read %s at offset %d: unexpected end of file", remote, offset)
		}

		if _, wErr := w.Write(data); wErr != nil {
			return wErr
		}
		offset += uint64(len(data))
	}
	return nil
}
