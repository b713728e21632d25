package rfs

import "errors"

// Sentinel errors engines map their wire status codes onto. Commands branch
// on these with errors.Is; anything else is treated as an unclassified
// failure of the running command.
var (
	ErrNotExist = errors.New("no such file or directory")
	ErrExist    = errors.New("file exists")
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
	ErrPerm     = errors.New("permission denied")
	ErrNotEmpty = errors.New("directory not empty")
	ErrStale    = errors.New("stale file handle")
	ErrIO       = errors.New("i/o error")
)
