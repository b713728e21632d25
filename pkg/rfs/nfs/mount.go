package nfs

import (
	"fmt"
	"net"
)

// mnt asks the MOUNT3 service for the root file handle of an export.
func mnt(conn net.Conn, xid uint32, cred *credentials, export string) ([]byte, error) {
	var w xdrWriter
	w.String(export)

	result, err := call(conn, xid, programMount, mountVersion, mountProcMnt, cred, w.Bytes())
	if err != nil {
		return nil, fmt.Errorf("mount %q: %w", export, err)
	}

	r := newXDRReader(result)
	status, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := mountStatusError(status); err != nil {
		return nil, err
	}

	handle, err := r.Opaque()
	if err != nil {
		return nil, fmt.Errorf("mount %q: read root handle: %w", export, err)
	}
	// The auth flavor list that follows is irrelevant here: calls carry
	// AUTH_UNIX regardless.
	return handle, nil
}

// umnt removes this client from the server's mount list. Errors are the
// caller's to ignore: teardown must not fail the shell exit.
func umnt(conn net.Conn, xid uint32, cred *credentials, export string) error {
	var w xdrWriter
	w.String(export)

	if _, err := call(conn, xid, programMount, mountVersion, mountProcUmnt, cred, w.Bytes()); err != nil {
		return fmt.Errorf("umount %q: %w", export, err)
	}
	return nil
}
