package nfs

import (
	"fmt"

	"nfsh/pkg/rfs"
)

// NFSv3 status codes (RFC 1813 section 2.6)
const (
	nfs3OK          = 0
	nfs3ErrPerm     = 1
	nfs3ErrNoEnt    = 2
	nfs3ErrIO       = 5
	nfs3ErrAcces    = 13
	nfs3ErrExist    = 17
	nfs3ErrNotDir   = 20
	nfs3ErrIsDir    = 21
	nfs3ErrNoSpc    = 28
	nfs3ErrROFS     = 30
	nfs3ErrNameTooL = 63
	nfs3ErrNotEmpty = 66
	nfs3ErrStale    = 70
)

// statusError maps an NFSv3 status code to the shared sentinel errors the
// shell branches on.
func statusError(status uint32) error {
	switch status {
	case nfs3OK:
		return nil
	case nfs3ErrNoEnt:
		return rfs.ErrNotExist
	case nfs3ErrExist:
		return rfs.ErrExist
	case nfs3ErrNotDir:
		return rfs.ErrNotDir
	case nfs3ErrIsDir:
		return rfs.ErrIsDir
	case nfs3ErrPerm, nfs3ErrAcces, nfs3ErrROFS:
		return rfs.ErrPerm
	case nfs3ErrNotEmpty:
		return rfs.ErrNotEmpty
	case nfs3ErrStale:
		return rfs.ErrStale
	case nfs3ErrIO:
		return rfs.ErrIO
	default:
		return fmt.Errorf("nfs status %d: %w", status, rfs.ErrIO)
	}
}

// mountStatusError maps a MOUNT3 status code. The MOUNT protocol reuses
// the errno-style values.
func mountStatusError(status uint32) error {
	if status == nfs3OK {
		return nil
	}
	if status == nfs3ErrAcces {
		return fmt.Errorf("export not allowed: %w", rfs.ErrPerm)
	}
	return fmt.Errorf("mount failed with status %d", status)
}
