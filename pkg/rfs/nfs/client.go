// Package nfs implements the rfs.Engine capability set over the NFSv3 and
// MOUNT3 protocols (RFC 1813): ONC RPC with record marking over TCP,
// AUTH_UNIX credentials, XDR-encoded procedure bodies. Service ports are
// discovered through the portmapper unless pinned in the Config.
package nfs

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
)

// blockSizeCap bounds the negotiated transfer sizes so a misbehaving
// server cannot make the shell allocate absurd chunks.
const blockSizeCap = 1 << 20

const defaultPortmapPort = 111

// Config carries everything needed to reach an export.
type Config struct {
	// Host is the server name or address, without port.
	Host string
	// Export is the exported tree to attach to, e.g. "/export".
	Export string

	// PortmapPort is where the portmapper listens. Defaults to 111.
	PortmapPort int
	// NFSPort and MountPort pin the service ports. When zero they are
	// discovered through the portmapper.
	NFSPort   int
	MountPort int

	// Machine, UID and GID fill the AUTH_UNIX credential.
	Machine string
	UID     uint32
	GID     uint32

	// Timeout applies to connection establishment. Calls themselves have
	// no deadline: a stalled server blocks the shell, by contract.
	Timeout time.Duration
}

// Client is an NFSv3 rfs.Engine. Paths are resolved to file handles with a
// LOOKUP walk on every call; nothing is cached between commands.
type Client struct {
	cfg    Config
	cred   credentials
	conn   net.Conn
	xid    uint32
	rootFH []byte
	rtsize uint32
	wtsize uint32
}

// New returns an unconnected client. Call Init to establish the session.
func New(cfg Config) *Client {
	if cfg.PortmapPort == 0 {
		cfg.PortmapPort = defaultPortmapPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Machine == "" {
		cfg.Machine, _ = os.Hostname()
	}
	return &Client{
		cfg: cfg,
		cred: credentials{
			Machine: cfg.Machine,
			UID:     cfg.UID,
			GID:     cfg.GID,
		},
	}
}

func (c *Client) Host() string           { return c.cfg.Host }
func (c *Client) Export() string         { return c.cfg.Export }
func (c *Client) ReadBlockSize() uint32  { return c.rtsize }
func (c *Client) WriteBlockSize() uint32 { return c.wtsize }

func (c *Client) dial(port int) (net.Conn, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, c.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func (c *Client) nextXID() uint32 {
	c.xid++
	return c.xid
}

// discoverPorts fills in NFSPort and MountPort through the portmapper.
func (c *Client) discoverPorts() error {
	if c.cfg.NFSPort != 0 && c.cfg.MountPort != 0 {
		return nil
	}

	conn, err := c.dial(c.cfg.PortmapPort)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if c.cfg.NFSPort == 0 {
		port, gErr := getPort(conn, c.nextXID(), programNFS, nfsVersion)
		if gErr != nil {
			return gErr
		}
		c.cfg.NFSPort = int(port)
	}
	if c.cfg.MountPort == 0 {
		port, gErr := getPort(conn, c.nextXID(), programMount, mountVersion)
		if gErr != nil {
			return gErr
		}
		c.cfg.MountPort = int(port)
	}
	return nil
}

// Init mounts the export and negotiates the transfer sizes.
func (c *Client) Init() error {
	c.xid = uint32(time.Now().UnixNano())

	if err := c.discoverPorts(); err != nil {
		return err
	}

	mountConn, err := c.dial(c.cfg.MountPort)
	if err != nil {
		return err
	}
	rootFH, mErr := mnt(mountConn, c.nextXID(), &c.cred, c.cfg.Export)
	_ = mountConn.Close()
	if mErr != nil {
		return mErr
	}
	c.rootFH = rootFH

	c.conn, err = c.dial(c.cfg.NFSPort)
	if err != nil {
		return err
	}

	if err := c.fsInfo(); err != nil {
		_ = c.conn.Close()
		return fmt.Errorf("fsinfo: %w", err)
	}
	return nil
}

// Close unregisters the mount and drops the connection.
func (c *Client) Close() error {
	if mountConn, err := c.dial(c.cfg.MountPort); err == nil {
		_ = umnt(mountConn, c.nextXID(), &c.cred, c.cfg.Export)
		_ = mountConn.Close()
	}
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// nfsCall performs one NFSv3 procedure round trip.
func (c *Client) nfsCall(procedure uint32, args []byte) (*xdrReader, error) {
	result, err := call(c.conn, c.nextXID(), programNFS, nfsVersion, procedure, &c.cred, args)
	if err != nil {
		return nil, err
	}
	return newXDRReader(result), nil
}

// lookup resolves one name inside the directory identified by dirFH.
func (c *Client) lookup(dirFH []byte, name string) ([]byte, error) {
	var w xdrWriter
	w.Opaque(dirFH)
	w.String(name)

	r, err := c.nfsCall(procLookup, w.Bytes())
	if err != nil {
		return nil, err
	}
	status, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := statusError(status); err != nil {
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	return r.Opaque()
}

// resolve walks a canonical absolute path from the export root to its file
// handle, one LOOKUP per component.
func (c *Client) resolve(path string) ([]byte, error) {
	fh := c.rootFH
	trimmed := strings.Trim(rpath.Clean(path), "/")
	if trimmed == "" || trimmed == "." {
		return fh, nil
	}

	for _, name := range strings.Split(trimmed, "/") {
		next, err := c.lookup(fh, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		fh = next
	}
	return fh, nil
}

// resolveParent resolves the directory handle containing path's leaf.
func (c *Client) resolveParent(path string) ([]byte, string, error) {
	dirFH, err := c.resolve(rpath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	return dirFH, rpath.Base(path), nil
}

func (c *Client) GetAttr(path string) (*rfs.Attr, error) {
	fh, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var w xdrWriter
	w.Opaque(fh)
	r, err := c.nfsCall(procGetAttr, w.Bytes())
	if err != nil {
		return nil, err
	}
	status, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := statusError(status); err != nil {
		return nil, fmt.Errorf("getattr %s: %w", path, err)
	}
	return readFattr3(r)
}

func (c *Client) ReadDir(path string) ([]rfs.Entry, error) {
	fh, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var entries []rfs.Entry
	var cookie uint64
	cookieVerf := make([]byte, 8)

	for {
		var w xdrWriter
		w.Opaque(fh)
		w.Uint64(cookie)
		w.Raw(cookieVerf)
		w.Uint32(c.rtsize)

		r, err := c.nfsCall(procReadDir, w.Bytes())
		if err != nil {
			return nil, err
		}
		status, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if err := statusError(status); err != nil {
			return nil, fmt.Errorf("readdir %s: %w", path, err)
		}
		if err := skipPostOpAttr(r); err != nil {
			return nil, err
		}

		verf, vErr := r.Raw(8)
		if vErr != nil {
			return nil, fmt.Errorf("read cookieverf: %w", vErr)
		}
		cookieVerf = verf

		for {
			follows, fErr := r.Bool()
			if fErr != nil {
				return nil, fErr
			}
			if !follows {
				break
			}
			if err := r.Skip(8); err != nil { // fileid
				return nil, err
			}
			name, nErr := r.String()
			if nErr != nil {
				return nil, nErr
			}
			cookie, err = r.Uint64()
			if err != nil {
				return nil, err
			}
			// READDIR does not report entry types; they are resolved
			// lazily with GetAttr by the caller.
			entries = append(entries, rfs.Entry{Name: name})
		}

		eof, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if eof {
			return entries, nil
		}
	}
}

func (c *Client) ReadLink(path string) (string, error) {
	fh, err := c.resolve(path)
	if err != nil {
		return "", err
	}

	var w xdrWriter
	w.Opaque(fh)
	r, err := c.nfsCall(procReadLink, w.Bytes())
	if err != nil {
		return "", err
	}
	status, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if err := statusError(status); err != nil {
		return "", fmt.Errorf("readlink %s: %w", path, err)
	}
	if err := skipPostOpAttr(r); err != nil {
		return "", err
	}
	return r.String()
}

func (c *Client) Read(path string, offset uint64, count uint32) ([]byte, bool, error) {
	fh, err := c.resolve(path)
	if err != nil {
		return nil, false, err
	}

	var w xdrWriter
	w.Opaque(fh)
	w.Uint64(offset)
	w.Uint32(count)

	r, err := c.nfsCall(procRead, w.Bytes())
	if err != nil {
		return nil, false, err
	}
	status, err := r.Uint32()
	if err != nil {
		return nil, false, err
	}
	if err := statusError(status); err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := skipPostOpAttr(r); err != nil {
		return nil, false, err
	}
	if _, err := r.Uint32(); err != nil { // count, implied by data length
		return nil, false, err
	}
	eof, err := r.Bool()
	if err != nil {
		return nil, false, err
	}
	data, err := r.Opaque()
	if err != nil {
		return nil, false, err
	}
	return data, eof, nil
}

func (c *Client) Write(path string, data []byte, offset uint64) (uint32, error) {
	fh, err := c.resolve(path)
	if err != nil {
		return 0, err
	}

	var w xdrWriter
	w.Opaque(fh)
	w.Uint64(offset)
	w.Uint32(uint32(len(data)))
	w.Uint32(writeFileSync)
	w.Opaque(data)

	r, err := c.nfsCall(procWrite, w.Bytes())
	if err != nil {
		return 0, err
	}
	status, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if err := statusError(status); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := skipWccData(r); err != nil {
		return 0, err
	}
	return r.Uint32()
}

func (c *Client) Mknod(path string, mode uint32) error {
	dirFH, name, err := c.resolveParent(path)
	if err != nil {
		return err
	}

	var w xdrWriter
	w.Opaque(dirFH)
	w.String(name)
	w.Uint32(createGuarded)
	attr := sattr3{Mode: &mode}
	attr.encode(&w)

	r, err := c.nfsCall(procCreate, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// setattr issues a SETATTR without a ctime guard.
func (c *Client) setattr(path string, attr sattr3) error {
	fh, err := c.resolve(path)
	if err != nil {
		return err
	}

	var w xdrWriter
	w.Opaque(fh)
	attr.encode(&w)
	w.Bool(false) // no guard

	r, err := c.nfsCall(procSetAttr, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("setattr %s: %w", path, err)
	}
	return nil
}

func (c *Client) Truncate(path string, size uint64) error {
	return c.setattr(path, sattr3{Size: &size})
}

func (c *Client) Chmod(path string, mode uint32) error {
	mode &= 0o7777
	return c.setattr(path, sattr3{Mode: &mode})
}

func (c *Client) Chown(path string, uid, gid int) error {
	var attr sattr3
	if uid >= 0 {
		u := uint32(uid)
		attr.UID = &u
	}
	if gid >= 0 {
		g := uint32(gid)
		attr.GID = &g
	}
	return c.setattr(path, attr)
}

func (c *Client) Mkdir(path string, mode uint32) error {
	dirFH, name, err := c.resolveParent(path)
	if err != nil {
		return err
	}

	var w xdrWriter
	w.Opaque(dirFH)
	w.String(name)
	attr := sattr3{Mode: &mode}
	attr.encode(&w)

	r, err := c.nfsCall(procMkdir, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// removeCall backs both Remove and Rmdir: same diropargs3 body, different
// procedure.
func (c *Client) removeCall(procedure uint32, path string) error {
	dirFH, name, err := c.resolveParent(path)
	if err != nil {
		return err
	}

	var w xdrWriter
	w.Opaque(dirFH)
	w.String(name)

	r, err := c.nfsCall(procedure, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (c *Client) Remove(path string) error {
	return c.removeCall(procRemove, path)
}

func (c *Client) Rmdir(path string) error {
	return c.removeCall(procRmdir, path)
}

func (c *Client) Rename(oldPath, newPath string) error {
	oldDirFH, oldName, err := c.resolveParent(oldPath)
	if err != nil {
		return err
	}
	newDirFH, newName, err := c.resolveParent(newPath)
	if err != nil {
		return err
	}

	var w xdrWriter
	w.Opaque(oldDirFH)
	w.String(oldName)
	w.Opaque(newDirFH)
	w.String(newName)

	r, err := c.nfsCall(procRename, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (c *Client) StatFS() (*rfs.FsStat, error) {
	var w xdrWriter
	w.Opaque(c.rootFH)

	r, err := c.nfsCall(procFsStat, w.Bytes())
	if err != nil {
		return nil, err
	}
	status, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := statusError(status); err != nil {
		return nil, fmt.Errorf("fsstat: %w", err)
	}
	if err := skipPostOpAttr(r); err != nil {
		return nil, err
	}

	stat := &rfs.FsStat{}
	for _, field := range []*uint64{
		&stat.TotalBytes, &stat.FreeBytes, &stat.AvailBytes,
		&stat.TotalFiles, &stat.FreeFiles, &stat.AvailFiles,
	} {
		if *field, err = r.Uint64(); err != nil {
			return nil, err
		}
	}
	return stat, nil
}

// fsInfo negotiates rtsize/wtsize from the server's FSINFO maxima.
func (c *Client) fsInfo() error {
	var w xdrWriter
	w.Opaque(c.rootFH)

	r, err := c.nfsCall(procFsInfo, w.Bytes())
	if err != nil {
		return err
	}
	status, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := statusError(status); err != nil {
		return err
	}
	if err := skipPostOpAttr(r); err != nil {
		return err
	}

	rtmax, err := r.Uint32()
	if err != nil {
		return err
	}
	if err := r.Skip(8); err != nil { // rtpref, rtmult
		return err
	}
	wtmax, err := r.Uint32()
	if err != nil {
		return err
	}

	c.rtsize = min(rtmax, blockSizeCap)
	c.wtsize = min(wtmax, blockSizeCap)
	if c.rtsize == 0 || c.wtsize == 0 {
		return fmt.Errorf("server reported zero transfer size (rtmax=%d wtmax=%d)", rtmax, wtmax)
	}
	return nil
}

// Compile-time check that Client satisfies the capability set
var _ rfs.Engine = (*Client)(nil)
