// Package sftpfs implements the rfs.Engine capability set on top of an
// SFTP session. The ssh transport runs over plain TCP or, when the address
// is a ws:// or wss:// URL, over a websocket tunnel.
package sftpfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
	"nfsh/pkg/sconn"
)

// sftpBlockSize is the SFTP data payload per READ/WRITE packet. The
// protocol caps packets at 32KiB, so that is the negotiated transfer size.
const sftpBlockSize = 32768

// Config carries everything needed to reach an SFTP endpoint.
type Config struct {
	// Address is "host:port" for plain TCP, or a ws(s):// URL for a
	// websocket tunnel.
	Address string
	// Export is the remote directory treated as the session root.
	// Defaults to "/".
	Export string

	User     string
	Password string
	// Signer enables public key authentication when set.
	Signer ssh.Signer
	// HostKeyCallback defaults to accepting any host key.
	HostKeyCallback ssh.HostKeyCallback

	Timeout time.Duration
}

// Engine is an SFTP-backed rfs.Engine.
type Engine struct {
	cfg     Config
	sshConn *ssh.Client
	cli     *sftp.Client
}

// New returns an unconnected engine. Call Init to establish the session.
func New(cfg Config) *Engine {
	if cfg.Export == "" {
		cfg.Export = "/"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Host() string {
	if host, _, err := net.SplitHostPort(e.cfg.Address); err == nil {
		return host
	}
	return e.cfg.Address
}

func (e *Engine) Export() string         { return e.cfg.Export }
func (e *Engine) ReadBlockSize() uint32  { return sftpBlockSize }
func (e *Engine) WriteBlockSize() uint32 { return sftpBlockSize }

// dial establishes the raw transport: direct TCP, or a websocket wrapped
// into a net.Conn.
func (e *Engine) dial() (net.Conn, error) {
	if strings.HasPrefix(e.cfg.Address, "ws://") || strings.HasPrefix(e.cfg.Address, "wss://") {
		dialer := websocket.Dialer{HandshakeTimeout: e.cfg.Timeout}
		wsConn, _, err := dialer.Dial(e.cfg.Address, nil)
		if err != nil {
			return nil, fmt.Errorf("websocket dial %s: %w", e.cfg.Address, err)
		}
		return sconn.WsConnToNetConn(wsConn), nil
	}

	conn, err := net.DialTimeout("tcp", e.cfg.Address, e.cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", e.cfg.Address, err)
	}
	return conn, nil
}

func (e *Engine) Init() error {
	var auth []ssh.AuthMethod
	if e.cfg.Signer != nil {
		auth = append(auth, ssh.PublicKeys(e.cfg.Signer))
	}
	if e.cfg.Password != "" {
		auth = append(auth, ssh.Password(e.cfg.Password))
	}

	hostKeyCallback := e.cfg.HostKeyCallback
	if hostKeyCallback == nil {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	sshConf := &ssh.ClientConfig{
		User:            e.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         e.cfg.Timeout,
	}

	conn, err := e.dial()
	if err != nil {
		return err
	}

	c, chans, reqs, hErr := ssh.NewClientConn(conn, e.cfg.Address, sshConf)
	if hErr != nil {
		_ = conn.Close()
		return fmt.Errorf("ssh handshake: %w", hErr)
	}
	e.sshConn = ssh.NewClient(c, chans, reqs)

	cli, sErr := sftp.NewClient(e.sshConn, sftp.MaxPacket(sftpBlockSize))
	if sErr != nil {
		_ = e.sshConn.Close()
		return fmt.Errorf("sftp subsystem: %w", sErr)
	}
	e.cli = cli

	return nil
}

func (e *Engine) Close() error {
	if e.cli != nil {
		_ = e.cli.Close()
	}
	if e.sshConn != nil {
		return e.sshConn.Close()
	}
	return nil
}

// abs anchors a session path under the configured export directory.
func (e *Engine) abs(path string) string {
	if e.cfg.Export == "/" {
		return path
	}
	return rpath.Join(e.cfg.Export, strings.TrimPrefix(path, "/"))
}

// mapError converts pkg/sftp failures to the shared sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%v: %w", err, rfs.ErrNotExist)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%v: %w", err, rfs.ErrPerm)
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%v: %w", err, rfs.ErrExist)
	default:
		return err
	}
}

func attrFromInfo(info fs.FileInfo) *rfs.Attr {
	attr := &rfs.Attr{
		Type:  rfs.TypeRegular,
		Mode:  uint32(info.Mode().Perm()),
		Size:  uint64(info.Size()),
		Mtime: info.ModTime(),
	}

	switch {
	case info.IsDir():
		attr.Type = rfs.TypeDirectory
	case info.Mode()&fs.ModeSymlink != 0:
		attr.Type = rfs.TypeSymlink
	case info.Mode()&fs.ModeNamedPipe != 0:
		attr.Type = rfs.TypeFifo
	case info.Mode()&fs.ModeSocket != 0:
		attr.Type = rfs.TypeSocket
	case info.Mode()&fs.ModeDevice != 0:
		attr.Type = rfs.TypeBlockDevice
	}
	if info.Mode()&fs.ModeSetuid != 0 {
		attr.Mode |= 0o4000
	}
	if info.Mode()&fs.ModeSetgid != 0 {
		attr.Mode |= 0o2000
	}
	if info.Mode()&fs.ModeSticky != 0 {
		attr.Mode |= 0o1000
	}

	if stat, ok := info.Sys().(*sftp.FileStat); ok {
		attr.UID = stat.UID
		attr.GID = stat.GID
	}
	return attr
}

func (e *Engine) GetAttr(path string) (*rfs.Attr, error) {
	info, err := e.cli.Lstat(e.abs(path))
	if err != nil {
		return nil, mapError(err)
	}
	return attrFromInfo(info), nil
}

func (e *Engine) ReadDir(path string) ([]rfs.Entry, error) {
	infos, err := e.cli.ReadDir(e.abs(path))
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]rfs.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, rfs.Entry{
			Name: info.Name(),
			Type: attrFromInfo(info).Type,
		})
	}
	return entries, nil
}

func (e *Engine) ReadLink(path string) (string, error) {
	target, err := e.cli.ReadLink(e.abs(path))
	if err != nil {
		return "", mapError(err)
	}
	return target, nil
}

func (e *Engine) Read(path string, offset uint64, count uint32) ([]byte, bool, error) {
	f, err := e.cli.Open(e.abs(path))
	if err != nil {
		return nil, false, mapError(err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, count)
	n, rErr := f.ReadAt(buf, int64(offset))
	if rErr != nil && rErr != io.EOF {
		return nil, false, mapError(rErr)
	}
	return buf[:n], rErr == io.EOF, nil
}

func (e *Engine) Write(path string, data []byte, offset uint64) (uint32, error) {
	f, err := e.cli.OpenFile(e.abs(path), os.O_WRONLY)
	if err != nil {
		return 0, mapError(err)
	}
	defer func() { _ = f.Close() }()

	n, wErr := f.WriteAt(data, int64(offset))
	if wErr != nil {
		return uint32(n), mapError(wErr)
	}
	return uint32(n), nil
}

func (e *Engine) Mknod(path string, mode uint32) error {
	target := e.abs(path)

	f, err := e.cli.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		// Protocol 3 reports exclusive-create conflicts as a generic
		// failure; disambiguate with a follow-up stat.
		if _, sErr := e.cli.Lstat(target); sErr == nil {
			return fmt.Errorf("%s: %w", path, rfs.ErrExist)
		}
		return mapError(err)
	}
	defer func() { _ = f.Close() }()

	return mapError(e.cli.Chmod(target, os.FileMode(mode&0o7777)))
}

func (e *Engine) Truncate(path string, size uint64) error {
	return mapError(e.cli.Truncate(e.abs(path), int64(size)))
}

func (e *Engine) Mkdir(path string, mode uint32) error {
	target := e.abs(path)
	if err := e.cli.Mkdir(target); err != nil {
		if _, sErr := e.cli.Lstat(target); sErr == nil {
			return fmt.Errorf("%s: %w", path, rfs.ErrExist)
		}
		return mapError(err)
	}
	return mapError(e.cli.Chmod(target, os.FileMode(mode&0o7777)))
}

func (e *Engine) Rmdir(path string) error {
	return mapError(e.cli.RemoveDirectory(e.abs(path)))
}

func (e *Engine) Remove(path string) error {
	return mapError(e.cli.Remove(e.abs(path)))
}

func (e *Engine) Rename(oldPath, newPath string) error {
	return mapError(e.cli.PosixRename(e.abs(oldPath), e.abs(newPath)))
}

func (e *Engine) Chmod(path string, mode uint32) error {
	return mapError(e.cli.Chmod(e.abs(path), os.FileMode(mode&0o7777)))
}

func (e *Engine) Chown(path string, uid, gid int) error {
	target := e.abs(path)

	if uid < 0 || gid < 0 {
		info, err := e.cli.Lstat(target)
		if err != nil {
			return mapError(err)
		}
		stat, ok := info.Sys().(*sftp.FileStat)
		if !ok {
			return fmt.Errorf("%s: server did not report ownership", path)
		}
		if uid < 0 {
			uid = int(stat.UID)
		}
		if gid < 0 {
			gid = int(stat.GID)
		}
	}

	return mapError(e.cli.Chown(target, uid, gid))
}

func (e *Engine) StatFS() (*rfs.FsStat, error) {
	vfs, err := e.cli.StatVFS(e.cfg.Export)
	if err != nil {
		return nil, mapError(err)
	}

	bsize := vfs.Frsize
	if bsize == 0 {
		bsize = vfs.Bsize
	}
	return &rfs.FsStat{
		TotalBytes: vfs.Blocks * bsize,
		FreeBytes:  vfs.Bfree * bsize,
		AvailBytes: vfs.Bavail * bsize,
		TotalFiles: vfs.Files,
		FreeFiles:  vfs.Ffree,
		AvailFiles: vfs.Favail,
		BlockSize:  uint32(bsize),
	}, nil
}

// Compile-time check that Engine satisfies the capability set
var _ rfs.Engine = (*Engine)(nil)
