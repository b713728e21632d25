package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
)

type putCmd struct{}

func (c *putCmd) Name() string        { return "put" }
func (c *putCmd) Description() string { return "Upload a local file" }
func (c *putCmd) Usage() string       { return "put <local-file> [remote-path]" }

func (c *putCmd) Run(s *Shell, args []string, ui UserInterface) error {
	if len(args) < 1 || len(args) > 2 {
		return usageErrorf("put takes a local file and an optional destination")
	}

	local := args[0]
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	fi, sErr := f.Stat()
	if sErr != nil {
		return sErr
	}
	if fi.IsDir() {
		return fmt.Errorf("%s: is a directory", local)
	}

	remote := filepath.Base(local)
	if len(args) == 2 {
		remote = args[1]
	}
	remote = s.canon(remote)

	remote, pErr := s.prepareUpload(remote, filepath.Base(local))
	if pErr != nil {
		return pErr
	}

	if uErr := s.upload(f, remote, uint64(fi.Size())); uErr != nil {
		return uErr
	}
	ui.Printf("%s -> %s", local, remote)
	return nil
}

// prepareUpload makes remote an existing, empty regular file and returns
// the path actually written. A destination that turns out to be a
// directory retargets to a file under it with one more create attempt;
// only on that second attempt does an existing file fall back to
// truncation, so a directory appearing at the retargeted path still fails.
func (s *Shell) prepareUpload(remote, basename string) (string, error) {
	mode := 0o666 &^ s.umask

	err := s.engine.Mknod(remote, mode)
	if err == nil {
		return remote, nil
	}
	if !errors.Is(err, rfs.ErrExist) {
		return "", fmt.Errorf("create %s: %w", remote, err)
	}

	dir, dErr := s.isDir(remote)
	if dErr != nil {
		return "", fmt.Errorf("%s: %w", remote, dErr)
	}

	if !dir {
		if tErr := s.engine.Truncate(remote, 0); tErr != nil {
			return "", fmt.Errorf("truncate %s: %w", remote, tErr)
		}
		return remote, nil
	}

	remote = rpath.Join(remote, basename)
	if cErr := s.engine.Mknod(remote, mode); cErr != nil {
		if !errors.Is(cErr, rfs.ErrExist) {
			return "", fmt.Errorf("create %s: %w", remote, cErr)
		}
		if tErr := s.engine.Truncate(remote, 0); tErr != nil {
			return "", fmt.Errorf("truncate %s: %w", remote, tErr)
		}
	}
	return remote, nil
}

// upload copies size bytes from r into remote in write-block-sized chunks
// at increasing offsets.
func (s *Shell) upload(r io.Reader, remote string, size uint64) error {
	block := s.engine.WriteBlockSize()
	buf := make([]byte, block)

	for offset := uint64(0); offset < size; {
		count := uint64(block)
		if remaining := size - offset; remaining < count {
			count = remaining
		}

		if _, rErr := io.ReadFull(r, buf[:count]); rErr != nil {
			return fmt.Errorf("read local source at offset %d: %w", offset, rErr)
		}

		for sent := uint64(0); sent < count; {
			n, wErr := s.engine.Write(remote, buf[sent:count], offset+sent)
			if wErr != nil {
				return fmt.Errorf("write %s at offset %d: %w", remote, offset+sent, wErr)
			}
			if n == 0 {
				return fmt.Errorf("write %s at offset %d: no progress", remote, offset+sent)
			}
			sent += uint64(n)
		}
		offset += count
	}
	return nil
}
