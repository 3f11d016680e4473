package overlay

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

func readUpdate(t *testing.T, conn io.ReadWriter) Update {
	t.Helper()
	data, _, err := wsutil.ReadServerData(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("decode update %q: %v", data, err)
	}
	return u
}

func TestFeed_ReplaysLastAndBroadcasts(t *testing.T) {
	f := NewFeed("")
	srv := httptest.NewServer(f.Handler())
	defer srv.Close()

	f.Publish(Snapshot{FrameCount: 7, Visible: true})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	netConn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer netConn.Close()
	_ = netConn.SetDeadline(time.Now().Add(5 * time.Second))

	// The replayed update can arrive with the handshake response, in which
	// case Dial has already buffered it.
	var conn io.ReadWriter = netConn
	if br != nil {
		conn = struct {
			io.Reader
			io.Writer
		}{io.MultiReader(br, netConn), netConn}
	}

	if u := readUpdate(t, conn); u.View != "overlay" || u.Snapshot.FrameCount != 7 {
		t.Fatalf("replayed update got %+v", u)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("socket never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.Publish(Snapshot{FrameCount: 8, Visible: false})
	u := readUpdate(t, conn)
	if u.Snapshot.FrameCount != 8 || u.Snapshot.Visible {
		t.Fatalf("broadcast update got %+v", u)
	}
}

func TestFeed_PublishWithoutClients(t *testing.T) {
	f := NewFeed("")
	for i := 0; i < 100; i++ {
		f.Publish(Snapshot{FrameCount: uint64(i)})
	}
	if f.Clients() != 0 {
		t.Fatalf("clients got %d want 0", f.Clients())
	}
}
