package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodecanvas/pkg/host"
	"github.com/matzehuels/nodecanvas/pkg/session"
	"github.com/matzehuels/nodecanvas/pkg/store"
)

// hub owns one room per canvas path with at least one client.
type hub struct {
	mu    sync.Mutex
	rooms map[string]*room
	opts  Options
}

func newHub(opts Options) *hub {
	return &hub{rooms: make(map[string]*room), opts: opts}
}

// join returns the room for path, opening its session on first use.
func (h *hub) join(ctx context.Context, path string, c *client) (*room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[path]; ok {
		r.add(c)
		return r, nil
	}
	r, err := openRoom(ctx, h, path)
	if err != nil {
		return nil, err
	}
	h.rooms[path] = r
	r.add(c)
	return r, nil
}

// leave removes c and closes the room when it was the last client.
func (h *hub) leave(r *room, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r.remove(c) > 0 {
		return
	}
	if h.rooms[r.path] == r {
		delete(h.rooms, r.path)
	}
	r.close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*room)
	h.mu.Unlock()
	for _, r := range rooms {
		r.close()
	}
}

// room is the live session of one canvas and its clients.
type room struct {
	path   string
	sess   *session.Session
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	changed atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func openRoom(ctx context.Context, h *hub, path string) (*room, error) {
	adapter := host.NewHeadless(h.opts.Vault, h.opts.Width, h.opts.Height)
	opts := append([]session.Option{session.WithLogger(h.opts.Logger)}, h.opts.SessionOptions...)
	sess, err := session.Open(ctx, adapter, path, opts...)
	if err != nil {
		return nil, err
	}
	r := &room{
		path:    path,
		sess:    sess,
		logger:  h.opts.Logger.With("canvas", path),
		clients: make(map[*client]struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	sess.Subscribe(r.onEvent)
	go r.loop(time.Second / time.Duration(h.opts.FPS))
	r.logger.Info("session opened")
	return r, nil
}

// onEvent runs under the session lock, so it only queues the event.
func (r *room) onEvent(ev store.Event) {
	r.changed.Store(true)
	r.broadcast(outbound{Type: msgEvent, Op: string(ev.Op), IDs: ev.IDs})
}

// loop pumps the session's frame callbacks and broadcasts the state after
// any change.
func (r *room) loop(interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.sess.Pump(now)
			r.flush()
		}
	}
}

// flush broadcasts the state if it changed since the last flush.
func (r *room) flush() {
	if !r.changed.Swap(false) {
		return
	}
	st := r.sess.State()
	r.broadcast(outbound{Type: msgState, State: &st})
}

func (r *room) add(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *room) remove(c *client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *room) broadcast(out outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		c.push(out)
	}
}

func (r *room) close() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done
		r.sess.Close()
		r.logger.Info("session closed")
	})
}
