package sconn

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan net.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverSide <- WsConnToNetConn(ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	select {
	case server := <-serverSide:
		return WsConnToNetConn(ws), server
	case <-time.After(5 * time.Second):
		t.Fatal("server side never connected")
		return nil, nil
	}
}

func TestReadBuffersShortReads(t *testing.T) {
	client, server := wsPair(t)
	defer func() { _ = client.Close() }()
	defer func() { _ = server.Close() }()

	payload := []byte("0123456789")
	if _, err := client.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Drain the single websocket message with reads smaller than it
	var got bytes.Buffer
	buf := make([]byte, 3)
	for got.Len() < len(payload) {
		n, err := server.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got.Write(buf[:n])
	}

	if !bytes.Equal(got.Bytes(), payload) {
		t.Errorf("read %q, want %q", got.Bytes(), payload)
	}
}
