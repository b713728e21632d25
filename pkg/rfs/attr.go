package rfs

import (
	"fmt"
	"time"
)

// FileType identifies the kind of a remote filesystem object.
type FileType uint32

const (
	TypeRegular FileType = iota + 1
	TypeDirectory
	TypeSymlink
	TypeBlockDevice
	TypeCharDevice
	TypeSocket
	TypeFifo
)

// Attr is an immutable snapshot of a path's metadata. Attributes are
// fetched fresh on every query and never cached across commands.
type Attr struct {
	Type  FileType
	Mode  uint32 // permission bits only
	UID   uint32
	GID   uint32
	Size  uint64
	Mtime time.Time
}

// IsDir reports whether the snapshot describes a directory.
func (a *Attr) IsDir() bool {
	return a.Type == TypeDirectory
}

// IsSymlink reports whether the snapshot describes a symbolic link.
func (a *Attr) IsSymlink() bool {
	return a.Type == TypeSymlink
}

// ModeString renders the type and permission bits the way ls prints them,
// e.g. "d0755" for a directory with mode 0755.
func (a *Attr) ModeString() string {
	return fmt.Sprintf("%s%04o", a.Type.Letter(), a.Mode&0o7777)
}

// Letter returns the single-character type tag used in listings.
func (t FileType) Letter() string {
	switch t {
	case TypeDirectory:
		return "d"
	case TypeSymlink:
		return "l"
	case TypeBlockDevice:
		return "b"
	case TypeCharDevice:
		return "c"
	case TypeSocket:
		return "s"
	case TypeFifo:
		return "p"
	default:
		return "-"
	}
}

// Entry is a single directory enumeration result. The type is a hint only:
// enumeration may not report it reliably for every entry, so callers
// resolve it with a follow-up GetAttr.
type Entry struct {
	Name string
	Type FileType
}

// FsStat reports filesystem usage totals as returned by the remote engine.
type FsStat struct {
	TotalBytes uint64
	FreeBytes  uint64
	AvailBytes uint64
	TotalFiles uint64
	FreeFiles  uint64
	AvailFiles uint64
	BlockSize  uint32
}
