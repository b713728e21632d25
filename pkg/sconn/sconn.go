// Package sconn adapts a websocket connection into a net.Conn so the ssh
// transport can run over it.
package sconn

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

type wsConn struct {
	*websocket.Conn
	buff []byte
}

func (w *wsConn) Read(p []byte) (int, error) {
	var src []byte

	if len(w.buff) > 0 {
		src = w.buff
		w.buff = nil
	} else if _, msg, err := w.Conn.ReadMessage(); err == nil {
		src = msg
	} else {
		return 0, err
	}

	n := copy(p, src)
	if n < len(src) {
		// Keep the remainder for the next Read
		w.buff = append([]byte(nil), src[n:]...)
	}
	return n, nil
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.Conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) SetDeadline(t time.Time) error {
	if err := w.SetReadDeadline(t); err != nil {
		return err
	}
	return w.SetWriteDeadline(t)
}

// WsConnToNetConn converts a websocket.Conn into a net.Conn.
func WsConnToNetConn(websocketConn *websocket.Conn) net.Conn {
	return &wsConn{Conn: websocketConn}
}
