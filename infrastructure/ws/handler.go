// Package ws exposes the relay core over a WebSocket endpoint. Each accepted
// connection gets one Session, a read loop decoding client intents, and a
// write loop draining the session's event channel.
package ws

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"textnest/contract"
	"textnest/domain"
	"textnest/domain/event"
	"textnest/observability"
	"textnest/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

type Handler struct {
	log        *slog.Logger
	registry   contract.ISessionRegistry
	membership contract.IMembershipIndex
	router     contract.IRouter
	stats      *observability.Stats
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewHandler(log *slog.Logger, registry contract.ISessionRegistry,
	membership contract.IMembershipIndex, router contract.IRouter,
	stats *observability.Stats, allowedOrigins []string, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		registry:   registry,
		membership: membership,
		router:     router,
		stats:      stats,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts same-origin requests (no Origin header) and the
// configured allow-list.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowedOrigins, origin)
	}
}

// peer ties one upgraded connection to its session. Gorilla connections allow
// a single writer, so every outgoing frame goes through the replies channel
// and is written by the write pump alone.
type peer struct {
	conn    *websocket.Conn
	sess    *session.Session
	replies chan ServerFrame
}

// Serve upgrades the request and runs the connection until it drops. Cleanup
// is unconditional: whatever path ends the read loop, the session disconnects
// and leaves the registry exactly once.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	p := &peer{
		conn:    conn,
		sess:    session.New(h.log, h.registry, h.membership, h.router, h.bufferSize),
		replies: make(chan ServerFrame, 8),
	}
	h.stats.SessionOpened()
	defer h.stats.SessionClosed()
	defer p.sess.Disconnect()
	defer conn.Close()

	go h.writePump(p)
	h.readPump(c, p)
}

// readPump decodes client frames and drives the session state machine. It is
// the connection's owner; returning tears the connection down.
func (h *Handler) readPump(c *gin.Context, p *peer) {
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := p.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", "session_id", p.sess.ID(), "error", err)
			}
			return
		}
		h.handleFrame(c, p, frame)
	}
}

func (h *Handler) handleFrame(c *gin.Context, p *peer, frame ClientFrame) {
	ctx := c.Request.Context()

	switch frame.Type {
	case frameRegister:
		if err := p.sess.Register(frame.Username); err != nil {
			p.reply(errorFrame(err))
		}

	case frameSendPersonal:
		if _, err := p.sess.SendPersonal(ctx, frame.Receiver, frame.Content); err != nil {
			p.reply(errorFrame(err))
		}

	case frameSendGroup:
		if _, err := p.sess.SendGroup(ctx, domain.GroupID(frame.GroupID), frame.Content); err != nil {
			p.reply(errorFrame(err))
		}

	case frameJoinGroup:
		group, err := p.sess.JoinGroup(domain.GroupID(frame.GroupID))
		if err != nil {
			p.reply(errorFrame(err))
			return
		}
		p.reply(toServerFrame(event.GroupJoined{Group: group}))

	default:
		h.log.Debug("unknown frame type", "session_id", p.sess.ID(), "type", frame.Type)
	}
}

// reply queues a frame for the write pump. Dropping on a full queue is fine;
// the connection is already drowning and the ping timeout will reap it.
func (p *peer) reply(frame ServerFrame) {
	select {
	case p.replies <- frame:
	default:
	}
}

// writePump is the sole writer on the connection: routed events, direct
// replies, and keepalive pings. It exits when the session terminates or a
// write fails; closing the connection then ends the read pump as well.
func (h *Handler) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.sess.Done():
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case evt := <-p.sess.Events():
			if !h.writeFrame(p.conn, toServerFrame(evt)) {
				_ = p.conn.Close()
				return
			}

		case frame := <-p.replies:
			if !h.writeFrame(p.conn, frame) {
				_ = p.conn.Close()
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = p.conn.Close()
				return
			}
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame ServerFrame) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Warn("websocket write failed", "error", err)
		return false
	}
	return true
}
