package nfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// ONC RPC program numbers (RFC 1833, RFC 1813)
const (
	programPortmap = 100000
	programNFS     = 100003
	programMount   = 100005

	portmapVersion = 2
	nfsVersion     = 3
	mountVersion   = 3

	portmapProcGetPort = 3
	protoTCP           = 6
)

// RPC message framing
const (
	rpcCall        = 0
	rpcReply       = 1
	rpcMsgAccepted = 0
	rpcSuccess     = 0

	authNull = 0
	authUnix = 1

	lastFragment = 0x80000000
)

type opaqueAuth struct {
	Flavor uint32
	Body   []byte `xdr:"opaque"`
}

type rpcCallHeader struct {
	XID        uint32
	MsgType    uint32
	RPCVersion uint32
	Program    uint32
	Version    uint32
	Procedure  uint32
	Cred       opaqueAuth
	Verf       opaqueAuth
}

type rpcReplyHeader struct {
	XID        uint32
	MsgType    uint32
	ReplyState uint32
	Verf       opaqueAuth
	AcceptStat uint32
}

// credentials identifies the caller for AUTH_UNIX flavored calls.
type credentials struct {
	Machine string
	UID     uint32
	GID     uint32
}

func (c *credentials) opaque() ([]byte, error) {
	var w xdrWriter
	w.Uint32(0) // stamp
	w.String(c.Machine)
	w.Uint32(c.UID)
	w.Uint32(c.GID)
	w.Uint32(0) // no auxiliary gids
	body := w.Bytes()
	if len(body) > 400 {
		return nil, fmt.Errorf("AUTH_UNIX credential body too large (%d bytes)", len(body))
	}
	return body, nil
}

// call performs one RPC round trip on conn: frames the call with record
// marking, then reads and validates the reply, returning the bytes after
// the reply header.
func call(conn net.Conn, xid, program, version, procedure uint32, cred *credentials, args []byte) ([]byte, error) {
	header := rpcCallHeader{
		XID:        xid,
		MsgType:    rpcCall,
		RPCVersion: 2,
		Program:    program,
		Version:    version,
		Procedure:  procedure,
		Cred:       opaqueAuth{Flavor: authNull, Body: []byte{}},
		Verf:       opaqueAuth{Flavor: authNull, Body: []byte{}},
	}
	if cred != nil {
		body, err := cred.opaque()
		if err != nil {
			return nil, err
		}
		header.Cred = opaqueAuth{Flavor: authUnix, Body: body}
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &header); err != nil {
		return nil, fmt.Errorf("marshal call header: %w", err)
	}
	buf.Write(args)

	if err := writeRecord(conn, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("send call: %w", err)
	}

	record, err := readRecord(conn)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	return parseReply(record, xid)
}

// parseReply validates a reply record and returns the procedure results.
func parseReply(record []byte, xid uint32) ([]byte, error) {
	reply := rpcReplyHeader{}
	n, err := xdr.Unmarshal(bytes.NewReader(record), &reply)
	if err != nil {
		return nil, fmt.Errorf("unmarshal reply header: %w", err)
	}

	if reply.XID != xid {
		return nil, fmt.Errorf("reply xid %d does not match call xid %d", reply.XID, xid)
	}
	if reply.MsgType != rpcReply {
		return nil, fmt.Errorf("expected REPLY (1), got %d", reply.MsgType)
	}
	if reply.ReplyState != rpcMsgAccepted {
		return nil, fmt.Errorf("rpc call denied (state %d)", reply.ReplyState)
	}
	if reply.AcceptStat != rpcSuccess {
		return nil, fmt.Errorf("rpc call failed (accept status %d)", reply.AcceptStat)
	}

	return record[n:], nil
}

// writeRecord frames data with the RPC record-marking standard: a 4-byte
// header carrying the fragment length with the last-fragment bit set.
func writeRecord(w io.Writer, data []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, lastFragment|uint32(len(data)))
	if _, err := w.Write(append(header, data...)); err != nil {
		return err
	}
	return nil
}

// readRecord reassembles one record from its fragments.
func readRecord(r io.Reader) ([]byte, error) {
	var record []byte
	for {
		var header uint32
		if err := binary.Read(r, binary.BigEndian, &header); err != nil {
			return nil, fmt.Errorf("read fragment header: %w", err)
		}

		length := header &^ lastFragment
		fragment := make([]byte, length)
		if _, err := io.ReadFull(r, fragment); err != nil {
			return nil, fmt.Errorf("read fragment body: %w", err)
		}
		record = append(record, fragment...)

		if header&lastFragment != 0 {
			return record, nil
		}
	}
}

// getPort asks the portmapper on conn for the TCP port of program/version.
func getPort(conn net.Conn, xid, program, version uint32) (uint32, error) {
	var w xdrWriter
	w.Uint32(program)
	w.Uint32(version)
	w.Uint32(protoTCP)
	w.Uint32(0)

	result, err := call(conn, xid, programPortmap, portmapVersion, portmapProcGetPort, nil, w.Bytes())
	if err != nil {
		return 0, fmt.Errorf("portmap getport: %w", err)
	}

	port, err := newXDRReader(result).Uint32()
	if err != nil {
		return 0, err
	}
	if port == 0 {
		return 0, fmt.Errorf("program %d version %d is not registered", program, version)
	}
	return port, nil
}
