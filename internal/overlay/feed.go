package overlay

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Update is the message written to feed sockets.
type Update struct {
	View     string   `json:"v"`
	Snapshot Snapshot `json:"m"`
}

// Feed serves snapshots to websocket clients so an overlay can be shown in a
// browser next to the emulator window. Publish never blocks the frame loop:
// updates that do not fit a socket's queue are dropped.
type Feed struct {
	listenAddr string
	mux        *http.ServeMux

	socketsRw sync.RWMutex
	sockets   []*socket

	lastMu sync.Mutex
	last   *Update
}

type socket struct {
	feed *Feed
	conn net.Conn
	q    chan Update
	once sync.Once
}

func NewFeed(listenAddr string) *Feed {
	f := &Feed{
		listenAddr: listenAddr,
		mux:        http.NewServeMux(),
		sockets:    make([]*socket, 0, 2),
	}
	f.mux.Handle("/ws/", http.HandlerFunc(f.serveWS))
	return f
}

// Handler exposes the feed's routes for embedding or tests.
func (f *Feed) Handler() http.Handler { return f.mux }

func (f *Feed) Serve() error {
	return http.ListenAndServe(f.listenAddr, f.mux)
}

func (f *Feed) serveWS(rw http.ResponseWriter, req *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(req, rw)
	if err != nil {
		log.Println(fmt.Errorf("overlay feed: upgrade: %w", err))
		return
	}
	k := &socket{feed: f, conn: conn, q: make(chan Update, 8)}

	// start with the most recent state so a new client is not blank
	f.lastMu.Lock()
	if f.last != nil {
		k.q <- *f.last
	}
	f.lastMu.Unlock()

	f.socketsRw.Lock()
	f.sockets = append(f.sockets, k)
	f.socketsRw.Unlock()

	go k.readHandler()
	go k.writeHandler()
}

func (f *Feed) removeSocket(k *socket) {
	f.socketsRw.Lock()
	defer f.socketsRw.Unlock()
	for i, sk := range f.sockets {
		if sk == k {
			f.sockets = append(f.sockets[:i], f.sockets[i+1:]...)
			break
		}
	}
}

// Clients returns the number of connected sockets.
func (f *Feed) Clients() int {
	f.socketsRw.RLock()
	defer f.socketsRw.RUnlock()
	return len(f.sockets)
}

func (f *Feed) Publish(s Snapshot) {
	u := Update{View: "overlay", Snapshot: s}
	f.lastMu.Lock()
	f.last = &u
	f.lastMu.Unlock()

	f.socketsRw.RLock()
	defer f.socketsRw.RUnlock()
	for _, k := range f.sockets {
		select {
		case k.q <- u:
		default:
		}
	}
}

// readHandler owns the socket lifetime; client frames other than close are ignored.
func (k *socket) readHandler() {
	defer k.close()
	r := wsutil.NewReader(k.conn, ws.StateServerSide)
	for {
		hdr, err := r.NextFrame()
		if err != nil {
			return
		}
		if hdr.OpCode == ws.OpClose {
			return
		}
		if err := r.Discard(); err != nil {
			return
		}
	}
}

func (k *socket) writeHandler() {
	w := wsutil.NewWriter(k.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)
	for u := range k.q {
		if err := encoder.Encode(&u); err != nil {
			log.Println(err)
			continue
		}
		if err := w.Flush(); err != nil {
			k.close()
			return
		}
	}
}

func (k *socket) close() {
	k.once.Do(func() {
		k.feed.removeSocket(k)
		_ = k.conn.Close()
		close(k.q)
	})
}
