// Package rfs defines the capability set the shell consumes from a remote
// filesystem engine. Engines resolve paths to their own opaque handles
// internally; the shell only ever deals in canonical absolute paths.
package rfs

// Engine is the connection to a remote filesystem. Implementations are not
// required to be safe for concurrent use: the shell issues exactly one call
// at a time.
type Engine interface {
	// Init establishes the remote session. Must be called once before any
	// other method.
	Init() error
	// Close tears the remote session down.
	Close() error

	// Host identifies the remote endpoint, for display purposes.
	Host() string
	// Export is the remote tree this session is attached to.
	Export() string

	// ReadBlockSize is the negotiated maximum byte count per Read call.
	ReadBlockSize() uint32
	// WriteBlockSize is the negotiated maximum byte count per Write call.
	WriteBlockSize() uint32

	// GetAttr returns a fresh attribute snapshot for path.
	GetAttr(path string) (*Attr, error)
	// ReadDir enumerates the entries of a directory.
	ReadDir(path string) ([]Entry, error)
	// ReadLink returns the target of a symbolic link.
	ReadLink(path string) (string, error)

	// Read returns up to count bytes starting at offset, and whether the
	// end of the file was reached.
	Read(path string, offset uint64, count uint32) ([]byte, bool, error)
	// Write stores data at offset and returns the number of bytes written.
	Write(path string, data []byte, offset uint64) (uint32, error)

	// Mknod creates a regular empty file with the given permission bits.
	// Returns ErrExist if path already exists.
	Mknod(path string, mode uint32) error
	// Truncate sets the file size.
	Truncate(path string, size uint64) error

	Mkdir(path string, mode uint32) error
	Rmdir(path string) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Chmod(path string, mode uint32) error
	// Chown changes ownership. A negative uid or gid leaves that side
	// untouched.
	Chown(path string, uid, gid int) error

	// StatFS reports filesystem usage totals.
	StatFS() (*FsStat, error)
}
