package nfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Minimal XDR primitives for the NFSv3 and MOUNT3 call bodies. The ONC RPC
// envelope itself goes through rasky/go-xdr (see rpc.go); the procedure
// bodies are built by hand because several of them are discriminated
// unions that do not map onto struct tags.

type xdrWriter struct {
	buf bytes.Buffer
}

func (w *xdrWriter) Uint32(v uint32) {
	_ = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *xdrWriter) Uint64(v uint64) {
	_ = binary.Write(&w.buf, binary.BigEndian, v)
}

func (w *xdrWriter) Bool(v bool) {
	if v {
		w.Uint32(1)
		return
	}
	w.Uint32(0)
}

// Opaque writes a variable-length opaque: length, bytes, pad to 4.
func (w *xdrWriter) Opaque(data []byte) {
	w.Uint32(uint32(len(data)))
	w.buf.Write(data)
	if pad := (4 - len(data)%4) % 4; pad > 0 {
		w.buf.Write(make([]byte, pad))
	}
}

func (w *xdrWriter) String(s string) {
	w.Opaque([]byte(s))
}

// Raw appends fixed-length opaque data with no length prefix.
func (w *xdrWriter) Raw(data []byte) {
	w.buf.Write(data)
}

func (w *xdrWriter) Bytes() []byte {
	return w.buf.Bytes()
}

type xdrReader struct {
	r *bytes.Reader
}

func newXDRReader(data []byte) *xdrReader {
	return &xdrReader{r: bytes.NewReader(data)}
}

func (r *xdrReader) Uint32() (uint32, error) {
	var v uint32
	if err := binary.Read(r.r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint32: %w", err)
	}
	return v, nil
}

func (r *xdrReader) Uint64() (uint64, error) {
	var v uint64
	if err := binary.Read(r.r, binary.BigEndian, &v); err != nil {
		return 0, fmt.Errorf("read uint64: %w", err)
	}
	return v, nil
}

func (r *xdrReader) Bool() (bool, error) {
	v, err := r.Uint32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (r *xdrReader) Opaque() ([]byte, error) {
	length, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if uint64(length) > uint64(r.r.Len()) {
		return nil, fmt.Errorf("opaque length %d exceeds remaining %d bytes", length, r.r.Len())
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("read opaque: %w", err)
	}
	if pad := (4 - int(length)%4) % 4; pad > 0 {
		if _, err := r.r.Seek(int64(pad), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}
	return data, nil
}

func (r *xdrReader) String() (string, error) {
	data, err := r.Opaque()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Raw reads n fixed-length bytes with no length prefix.
func (r *xdrReader) Raw(n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("read %d raw bytes: %w", n, err)
	}
	return data, nil
}

// Skip discards n raw bytes.
func (r *xdrReader) Skip(n int) error {
	if _, err := r.r.Seek(int64(n), io.SeekCurrent); err != nil {
		return fmt.Errorf("skip %d bytes: %w", n, err)
	}
	return nil
}
