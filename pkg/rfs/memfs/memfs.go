// Package memfs implements the rfs.Engine capability set against an
// in-memory tree. It backs the test suite and is handy for demoing the
// shell without a remote server.
package memfs

import (
	"fmt"
	"strings"
	"time"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
)

type node struct {
	attr     rfs.Attr
	data     []byte
	children map[string]*node
	target   string // symlink target
}

// Engine is an in-memory rfs.Engine. Not safe for concurrent use, which
// matches the shell's strictly sequential call pattern.
type Engine struct {
	host   string
	export string
	rsize  uint32
	wsize  uint32
	root   *node
	open   bool
}

// New returns an empty in-memory engine with the given negotiated block
// sizes.
func New(host, export string, rsize, wsize uint32) *Engine {
	return &Engine{
		host:   host,
		export: export,
		rsize:  rsize,
		wsize:  wsize,
		root: &node{
			attr: rfs.Attr{
				Type:  rfs.TypeDirectory,
				Mode:  0o755,
				Mtime: time.Now(),
			},
			children: make(map[string]*node),
		},
	}
}

func (e *Engine) Init() error {
	e.open = true
	return nil
}

func (e *Engine) Close() error {
	e.open = false
	return nil
}

func (e *Engine) Host() string           { return e.host }
func (e *Engine) Export() string         { return e.export }
func (e *Engine) ReadBlockSize() uint32  { return e.rsize }
func (e *Engine) WriteBlockSize() uint32 { return e.wsize }

// lookup walks path from the root. Path must be canonical and absolute.
func (e *Engine) lookup(path string) (*node, error) {
	if !rpath.IsAbs(path) {
		return nil, fmt.Errorf("%q: %w", path, rfs.ErrNotExist)
	}

	current := e.root
	for _, name := range splitPath(path) {
		if current.attr.Type != rfs.TypeDirectory {
			return nil, fmt.Errorf("%q: %w", path, rfs.ErrNotDir)
		}
		child, ok := current.children[name]
		if !ok {
			return nil, fmt.Errorf("%q: %w", path, rfs.ErrNotExist)
		}
		current = child
	}
	return current, nil
}

// lookupParent resolves the directory containing path's leaf.
func (e *Engine) lookupParent(path string) (*node, string, error) {
	parent, err := e.lookup(rpath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	if parent.attr.Type != rfs.TypeDirectory {
		return nil, "", fmt.Errorf("%q: %w", rpath.Dir(path), rfs.ErrNotDir)
	}
	return parent, rpath.Base(path), nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (e *Engine) GetAttr(path string) (*rfs.Attr, error) {
	n, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	attr := n.attr
	attr.Size = uint64(len(n.data))
	if n.attr.Type == rfs.TypeDirectory {
		attr.Size = uint64(len(n.children))
	}
	return &attr, nil
}

func (e *Engine) ReadDir(path string) ([]rfs.Entry, error) {
	n, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	if n.attr.Type != rfs.TypeDirectory {
		return nil, fmt.Errorf("%q: %w", path, rfs.ErrNotDir)
	}

	entries := []rfs.Entry{
		{Name: ".", Type: rfs.TypeDirectory},
		{Name: "..", Type: rfs.TypeDirectory},
	}
	for name, child := range n.children {
		entries = append(entries, rfs.Entry{Name: name, Type: child.attr.Type})
	}
	return entries, nil
}

func (e *Engine) ReadLink(path string) (string, error) {
	n, err := e.lookup(path)
	if err != nil {
		return "", err
	}
	if n.attr.Type != rfs.TypeSymlink {
		return "", fmt.Errorf("%q: not a symlink: %w", path, rfs.ErrIO)
	}
	return n.target, nil
}

func (e *Engine) Read(path string, offset uint64, count uint32) ([]byte, bool, error) {
	n, err := e.lookup(path)
	if err != nil {
		return nil, false, err
	}
	if n.attr.Type == rfs.TypeDirectory {
		return nil, false, fmt.Errorf("%q: %w", path, rfs.ErrIsDir)
	}

	size := uint64(len(n.data))
	if offset >= size {
		return nil, true, nil
	}

	end := offset + uint64(count)
	if end > size {
		end = size
	}
	chunk := make([]byte, end-offset)
	copy(chunk, n.data[offset:end])
	return chunk, end == size, nil
}

func (e *Engine) Write(path string, data []byte, offset uint64) (uint32, error) {
	n, err := e.lookup(path)
	if err != nil {
		return 0, err
	}
	if n.attr.Type == rfs.TypeDirectory {
		return 0, fmt.Errorf("%q: %w", path, rfs.ErrIsDir)
	}

	end := offset + uint64(len(data))
	if end > uint64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:end], data)
	n.attr.Mtime = time.Now()
	return uint32(len(data)), nil
}

func (e *Engine) Mknod(path string, mode uint32) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; ok {
		return fmt.Errorf("%q: %w", path, rfs.ErrExist)
	}

	parent.children[name] = &node{
		attr: rfs.Attr{
			Type:  rfs.TypeRegular,
			Mode:  mode,
			Mtime: time.Now(),
		},
	}
	return nil
}

func (e *Engine) Truncate(path string, size uint64) error {
	n, err := e.lookup(path)
	if err != nil {
		return err
	}
	if n.attr.Type == rfs.TypeDirectory {
		return fmt.Errorf("%q: %w", path, rfs.ErrIsDir)
	}

	if size <= uint64(len(n.data)) {
		n.data = n.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, n.data)
		n.data = grown
	}
	n.attr.Mtime = time.Now()
	return nil
}

func (e *Engine) Mkdir(path string, mode uint32) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; ok {
		return fmt.Errorf("%q: %w", path, rfs.ErrExist)
	}

	parent.children[name] = &node{
		attr: rfs.Attr{
			Type:  rfs.TypeDirectory,
			Mode:  mode,
			Mtime: time.Now(),
		},
		children: make(map[string]*node),
	}
	return nil
}

func (e *Engine) Rmdir(path string) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	n, ok := parent.children[name]
	if !ok {
		return fmt.Errorf("%q: %w", path, rfs.ErrNotExist)
	}
	if n.attr.Type != rfs.TypeDirectory {
		return fmt.Errorf("%q: %w", path, rfs.ErrNotDir)
	}
	if len(n.children) > 0 {
		return fmt.Errorf("%q: %w", path, rfs.ErrNotEmpty)
	}

	delete(parent.children, name)
	return nil
}

func (e *Engine) Remove(path string) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	n, ok := parent.children[name]
	if !ok {
		return fmt.Errorf("%q: %w", path, rfs.ErrNotExist)
	}
	if n.attr.Type == rfs.TypeDirectory {
		return fmt.Errorf("%q: %w", path, rfs.ErrIsDir)
	}

	delete(parent.children, name)
	return nil
}

func (e *Engine) Rename(oldPath, newPath string) error {
	oldParent, oldName, err := e.lookupParent(oldPath)
	if err != nil {
		return err
	}
	n, ok := oldParent.children[oldName]
	if !ok {
		return fmt.Errorf("%q: %w", oldPath, rfs.ErrNotExist)
	}

	newParent, newName, err := e.lookupParent(newPath)
	if err != nil {
		return err
	}

	delete(oldParent.children, oldName)
	newParent.children[newName] = n
	return nil
}

func (e *Engine) Chmod(path string, mode uint32) error {
	n, err := e.lookup(path)
	if err != nil {
		return err
	}
	n.attr.Mode = mode & 0o7777
	return nil
}

func (e *Engine) Chown(path string, uid, gid int) error {
	n, err := e.lookup(path)
	if err != nil {
		return err
	}
	if uid >= 0 {
		n.attr.UID = uint32(uid)
	}
	if gid >= 0 {
		n.attr.GID = uint32(gid)
	}
	return nil
}

func (e *Engine) StatFS() (*rfs.FsStat, error) {
	var files, bytes uint64
	var walk func(*node)
	walk = func(n *node) {
		files++
		bytes += uint64(len(n.data))
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(e.root)

	const capacity = 1 << 30
	return &rfs.FsStat{
		TotalBytes: capacity,
		FreeBytes:  capacity - bytes,
		AvailBytes: capacity - bytes,
		TotalFiles: 1 << 20,
		FreeFiles:  1<<20 - files,
		AvailFiles: 1<<20 - files,
		BlockSize:  4096,
	}, nil
}

// Test and fixture helpers below. Paths must be canonical.

// AddFile creates or replaces a regular file with the given content.
func (e *Engine) AddFile(path string, mode uint32, data []byte) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	parent.children[name] = &node{
		attr: rfs.Attr{
			Type:  rfs.TypeRegular,
			Mode:  mode,
			Mtime: time.Now(),
		},
		data: append([]byte(nil), data...),
	}
	return nil
}

// AddDir creates a directory, failing if it already exists.
func (e *Engine) AddDir(path string, mode uint32) error {
	return e.Mkdir(path, mode)
}

// AddSymlink creates a symbolic link pointing at target.
func (e *Engine) AddSymlink(path, target string) error {
	parent, name, err := e.lookupParent(path)
	if err != nil {
		return err
	}
	parent.children[name] = &node{
		attr: rfs.Attr{
			Type:  rfs.TypeSymlink,
			Mode:  0o777,
			Mtime: time.Now(),
		},
		target: target,
	}
	return nil
}

// Content returns a copy of a regular file's bytes.
func (e *Engine) Content(path string) ([]byte, error) {
	n, err := e.lookup(path)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), n.data...), nil
}

// Compile-time check that Engine satisfies the capability set
var _ rfs.Engine = (*Engine)(nil)
