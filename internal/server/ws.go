package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/session"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	wsQueue     = 64
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Message types.
const (
	msgCommand = "command"
	msgPing    = "ping"
	msgPong    = "pong"
	msgJoined  = "joined"
	msgResult  = "result"
	msgEvent   = "event"
	msgState   = "state"
	msgError   = "error"
)

type inbound struct {
	Type    string           `json:"type"`
	Seq     int              `json:"seq,omitempty"`
	Command *session.Command `json:"command,omitempty"`
}

type outbound struct {
	Type    string          `json:"type"`
	Seq     int             `json:"seq,omitempty"`
	Canvas  string          `json:"canvas,omitempty"`
	Op      string          `json:"op,omitempty"`
	IDs     []string        `json:"ids,omitempty"`
	Result  *session.Result `json:"result,omitempty"`
	State   *session.State  `json:"state,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// client is one websocket connection. Writes go through a bounded queue
// that drops the oldest message when a slow reader falls behind.
type client struct {
	send chan outbound
}

func (c *client) push(out outbound) {
	select {
	case c.send <- out:
		return
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- out:
	default:
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(chi.URLParam(r, "*"))
	if path == "" {
		http.Error(w, "canvas path is required", http.StatusBadRequest)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{send: make(chan outbound, wsQueue)}
	rm, err := s.hub.join(ctx, path, c)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteJSON(errorMessage(0, err))
		return
	}
	defer s.hub.leave(rm, c)

	writerDone := make(chan struct{})
	go s.writeLoop(ctx, conn, c, writerDone)

	st := rm.sess.State()
	c.push(outbound{Type: msgJoined, Canvas: path, State: &st})

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		s.logger.Warn("ws set read deadline", "error", err)
		cancel()
		<-writerDone
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case msgPing:
			c.push(outbound{Type: msgPong, Seq: in.Seq})
		case msgCommand:
			if in.Command == nil {
				c.push(outbound{Type: msgError, Seq: in.Seq, Code: string(errs.ErrCodeInvalidInput), Message: "command is required"})
				continue
			}
			res, err := rm.sess.Apply(ctx, *in.Command)
			if err != nil {
				c.push(errorMessage(in.Seq, err))
				continue
			}
			c.push(outbound{Type: msgResult, Seq: in.Seq, Result: &res})
			rm.flush()
		default:
			c.push(outbound{Type: msgError, Seq: in.Seq, Code: string(errs.ErrCodeInvalidInput), Message: "unknown message type"})
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, c *client, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorMessage(seq int, err error) outbound {
	code := string(errs.GetCode(err))
	if code == "" {
		code = string(errs.ErrCodeInternal)
	}
	return outbound{Type: msgError, Seq: seq, Code: code, Message: errs.UserMessage(err)}
}
