package nfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	xdr "github.com/rasky/go-xdr/xdr2"

	"nfsh/pkg/rfs"
)

func TestRecordFraming(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("0123456789abcdef")

	if err := writeRecord(&buf, payload); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}

	header := binary.BigEndian.Uint32(buf.Bytes()[:4])
	if header&lastFragment == 0 {
		t.Error("last-fragment bit not set")
	}
	if header&^lastFragment != uint32(len(payload)) {
		t.Errorf("fragment length = %d, want %d", header&^lastFragment, len(payload))
	}

	record, err := readRecord(&buf)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if !bytes.Equal(record, payload) {
		t.Errorf("readRecord = %q, want %q", record, payload)
	}
}

func TestReadRecordMultiFragment(t *testing.T) {
	var buf bytes.Buffer

	// Two fragments: only the second carries the last-fragment bit
	first := []byte("part one ")
	second := []byte("part two")

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(first)))
	buf.Write(header)
	buf.Write(first)
	binary.BigEndian.PutUint32(header, lastFragment|uint32(len(second)))
	buf.Write(header)
	buf.Write(second)

	record, err := readRecord(&buf)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if string(record) != "part one part two" {
		t.Errorf("readRecord = %q", record)
	}
}

func buildReply(t *testing.T, xid, msgType, replyState, acceptStat uint32, results []byte) []byte {
	t.Helper()
	reply := rpcReplyHeader{
		XID:        xid,
		MsgType:    msgType,
		ReplyState: replyState,
		Verf:       opaqueAuth{Flavor: authNull, Body: []byte{}},
		AcceptStat: acceptStat,
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &reply); err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	buf.Write(results)
	return buf.Bytes()
}

func TestParseReply(t *testing.T) {
	results := []byte{0, 0, 0, 7}

	parsed, err := parseReply(buildReply(t, 42, rpcReply, rpcMsgAccepted, rpcSuccess, results), 42)
	if err != nil {
		t.Fatalf("parseReply: %v", err)
	}
	if !bytes.Equal(parsed, results) {
		t.Errorf("results = %v, want %v", parsed, results)
	}

	if _, err := parseReply(buildReply(t, 7, rpcReply, rpcMsgAccepted, rpcSuccess, nil), 42); err == nil {
		t.Error("expected xid mismatch error")
	}
	if _, err := parseReply(buildReply(t, 42, rpcReply, 1, rpcSuccess, nil), 42); err == nil {
		t.Error("expected denied error")
	}
	if _, err := parseReply(buildReply(t, 42, rpcReply, rpcMsgAccepted, 3, nil), 42); err == nil {
		t.Error("expected accept status error")
	}
}

func TestOpaquePadding(t *testing.T) {
	for _, size := range []int{0, 1, 3, 4, 5, 8} {
		data := bytes.Repeat([]byte{0xAB}, size)

		var w xdrWriter
		w.Opaque(data)
		w.Uint32(0xCAFE)

		encoded := w.Bytes()
		if len(encoded)%4 != 0 {
			t.Errorf("size %d: encoding not 4-byte aligned (%d)", size, len(encoded))
		}

		r := newXDRReader(encoded)
		decoded, err := r.Opaque()
		if err != nil {
			t.Fatalf("size %d: Opaque: %v", size, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("size %d: round trip mismatch", size)
		}
		marker, err := r.Uint32()
		if err != nil || marker != 0xCAFE {
			t.Errorf("size %d: padding misaligned, marker = %x err = %v", size, marker, err)
		}
	}
}

func TestReadFattr3(t *testing.T) {
	var w xdrWriter
	w.Uint32(nf3Dir)  // type
	w.Uint32(0o40755) // mode (type bits must be masked off)
	w.Uint32(2)       // nlink
	w.Uint32(1000)    // uid
	w.Uint32(1000)    // gid
	w.Uint64(4096)    // size
	w.Uint64(4096)    // used
	w.Uint32(0)       // rdev major
	w.Uint32(0)       // rdev minor
	w.Uint64(1)       // fsid
	w.Uint64(99)      // fileid
	w.Uint32(10)      // atime sec
	w.Uint32(0)       // atime nsec
	w.Uint32(1700000000)
	w.Uint32(500) // mtime
	w.Uint32(20)
	w.Uint32(0) // ctime

	attr, err := readFattr3(newXDRReader(w.Bytes()))
	if err != nil {
		t.Fatalf("readFattr3: %v", err)
	}
	if attr.Type != rfs.TypeDirectory {
		t.Errorf("type = %v, want directory", attr.Type)
	}
	if attr.Mode != 0o755 {
		t.Errorf("mode = %o, want 0755", attr.Mode)
	}
	if attr.UID != 1000 || attr.GID != 1000 {
		t.Errorf("owner = %d:%d", attr.UID, attr.GID)
	}
	if attr.Size != 4096 {
		t.Errorf("size = %d", attr.Size)
	}
	if attr.Mtime.Unix() != 1700000000 {
		t.Errorf("mtime = %v", attr.Mtime)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status uint32
		want   error
	}{
		{nfs3OK, nil},
		{nfs3ErrNoEnt, rfs.ErrNotExist},
		{nfs3ErrExist, rfs.ErrExist},
		{nfs3ErrNotDir, rfs.ErrNotDir},
		{nfs3ErrIsDir, rfs.ErrIsDir},
		{nfs3ErrAcces, rfs.ErrPerm},
		{nfs3ErrNotEmpty, rfs.ErrNotEmpty},
		{nfs3ErrStale, rfs.ErrStale},
	}
	for _, tt := range tests {
		err := statusError(tt.status)
		if tt.want == nil {
			if err != nil {
				t.Errorf("status %d: unexpected error %v", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.want)
		}
	}

	// Unknown codes still come back as I/O failures
	if !errors.Is(statusError(9999), rfs.ErrIO) {
		t.Error("unknown status should map to ErrIO")
	}
}

func TestSattr3Encode(t *testing.T) {
	mode := uint32(0o644)
	var w xdrWriter
	(&sattr3{Mode: &mode}).encode(&w)

	r := newXDRReader(w.Bytes())
	set, _ := r.Bool()
	if !set {
		t.Fatal("mode discriminant not set")
	}
	got, _ := r.Uint32()
	if got != 0o644 {
		t.Errorf("mode = %o", got)
	}
	for _, field := range []string{"uid", "gid", "size", "atime", "mtime"} {
		set, err := r.Bool()
		if err != nil {
			t.Fatalf("%s discriminant: %v", field, err)
		}
		if set {
			t.Errorf("%s should not be set", field)
		}
	}
}

func TestCredentialsOpaque(t *testing.T) {
	cred := credentials{Machine: "box", UID: 1000, GID: 100}
	body, err := cred.opaque()
	if err != nil {
		t.Fatalf("opaque: %v", err)
	}

	r := newXDRReader(body)
	if _, err := r.Uint32(); err != nil { // stamp
		t.Fatalf("stamp: %v", err)
	}
	machine, _ := r.String()
	if machine != "box" {
		t.Errorf("machine = %q", machine)
	}
	uid, _ := r.Uint32()
	gid, _ := r.Uint32()
	if uid != 1000 || gid != 100 {
		t.Errorf("uid:gid = %d:%d", uid, gid)
	}
	aux, _ := r.Uint32()
	if aux != 0 {
		t.Errorf("aux gid count = %d", aux)
	}
}
