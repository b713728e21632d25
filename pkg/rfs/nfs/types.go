package nfs

import (
	"time"

	"nfsh/pkg/rfs"
)

// NFSv3 procedure numbers (RFC 1813 section 3)
const (
	procGetAttr  = 1
	procSetAttr  = 2
	procLookup   = 3
	procReadLink = 5
	procRead     = 6
	procWrite    = 7
	procCreate   = 8
	procMkdir    = 9
	procRemove   = 12
	procRmdir    = 13
	procRename   = 14
	procReadDir  = 16
	procFsStat   = 18
	procFsInfo   = 19
)

// MOUNT3 procedure numbers (RFC 1813 appendix I)
const (
	mountProcMnt  = 1
	mountProcUmnt = 3
)

// NFSv3 file types
const (
	nf3Reg = iota + 1
	nf3Dir
	nf3Blk
	nf3Chr
	nf3Lnk
	nf3Sock
	nf3Fifo
)

// createhow3 discriminants
const (
	createUnchecked = 0
	createGuarded   = 1
)

// Write stability: the shell has no commit pass, so every chunk is
// FILE_SYNC.
const writeFileSync = 2

// set_time discriminant for sattr3: timestamps are never set explicitly,
// the server maintains them.
const dontChangeTime = 0

func fileTypeFromWire(t uint32) rfs.FileType {
	switch t {
	case nf3Reg:
		return rfs.TypeRegular
	case nf3Dir:
		return rfs.TypeDirectory
	case nf3Lnk:
		return rfs.TypeSymlink
	case nf3Blk:
		return rfs.TypeBlockDevice
	case nf3Chr:
		return rfs.TypeCharDevice
	case nf3Sock:
		return rfs.TypeSocket
	case nf3Fifo:
		return rfs.TypeFifo
	default:
		return rfs.TypeRegular
	}
}

// readFattr3 decodes a fattr3 structure (RFC 1813 section 2.6).
func readFattr3(r *xdrReader) (*rfs.Attr, error) {
	ftype, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	mode, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(4); err != nil { // nlink
		return nil, err
	}
	uid, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	gid, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	size, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	// used, rdev, fsid, fileid, atime
	if err := r.Skip(8 + 8 + 8 + 8 + 8); err != nil {
		return nil, err
	}
	mtimeSec, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	mtimeNsec, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(8); err != nil { // ctime
		return nil, err
	}

	return &rfs.Attr{
		Type:  fileTypeFromWire(ftype),
		Mode:  mode & 0o7777,
		UID:   uid,
		GID:   gid,
		Size:  size,
		Mtime: time.Unix(int64(mtimeSec), int64(mtimeNsec)),
	}, nil
}

// skipPostOpAttr consumes a post_op_attr union.
func skipPostOpAttr(r *xdrReader) error {
	follows, err := r.Bool()
	if err != nil {
		return err
	}
	if follows {
		if _, err := readFattr3(r); err != nil {
			return err
		}
	}
	return nil
}

// skipWccData consumes a wcc_data structure (pre_op_attr + post_op_attr).
func skipWccData(r *xdrReader) error {
	follows, err := r.Bool()
	if err != nil {
		return err
	}
	if follows {
		// wcc_attr: size + mtime + ctime
		if err := r.Skip(8 + 8 + 8); err != nil {
			return err
		}
	}
	return skipPostOpAttr(r)
}

// sattr3 carries the attributes a SETATTR/CREATE/MKDIR call wants to set.
// Nil fields are left untouched by the server.
type sattr3 struct {
	Mode *uint32
	UID  *uint32
	GID  *uint32
	Size *uint64
}

func (s *sattr3) encode(w *xdrWriter) {
	if s.Mode != nil {
		w.Bool(true)
		w.Uint32(*s.Mode)
	} else {
		w.Bool(false)
	}
	if s.UID != nil {
		w.Bool(true)
		w.Uint32(*s.UID)
	} else {
		w.Bool(false)
	}
	if s.GID != nil {
		w.Bool(true)
		w.Uint32(*s.GID)
	} else {
		w.Bool(false)
	}
	if s.Size != nil {
		w.Bool(true)
		w.Uint64(*s.Size)
	} else {
		w.Bool(false)
	}
	w.Uint32(dontChangeTime) // atime
	w.Uint32(dontChangeTime) // mtime
}
