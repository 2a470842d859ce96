package bot_test

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"kinobot/internal/bot"
	"kinobot/internal/logging"
)

func TestSocketServerRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	seedEntry(t, f, "A1", "Movie One", []byte("movie bytes"))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(t.TempDir(), "kinobot.sock")
	srv, err := bot.NewSocketServer(ctx, socket, f.dispatcher, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping socket test: %v", err)
		}
		t.Fatalf("NewSocketServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	conn, err := net.Dial("unix", socket)
	if err != nil {
		t.Fatalf("dial socket: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)

	if err := enc.Encode(map[string]any{"user_id": 42, "text": "A1"}); err != nil {
		t.Fatalf("send update: %v", err)
	}

	var reply struct {
		Type    string `json:"type"`
		UserID  int64  `json:"user_id"`
		Code    string `json:"code"`
		Path    string `json:"path"`
		Caption string `json:"caption"`
	}
	if err := dec.Decode(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != "document" || reply.Code != "A1" || reply.UserID != 42 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Path == "" || !strings.Contains(reply.Caption, "Movie One") {
		t.Fatalf("expected file path and caption, got %+v", reply)
	}

	if err := enc.Encode(map[string]any{"user_id": 42, "text": "ZZ"}); err != nil {
		t.Fatalf("send update: %v", err)
	}
	var second struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if second.Type != "message" || !strings.Contains(second.Text, "ZZ") {
		t.Fatalf("unexpected reply: %+v", second)
	}
}
