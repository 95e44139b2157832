package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const defaultWriteTimeout = 5 * time.Second

// HandlerConfig tunes per-connection behavior.
type HandlerConfig struct {
	BufferSize       int
	WriteTimeout     time.Duration
	MaxContentLength int
	Stats            *observability.Stats
}

// Handler upgrades HTTP requests to WebSocket sessions and pumps frames
// between the connection and the chat service. One session per connection,
// torn down when the read loop exits for any reason.
type Handler struct {
	log     *slog.Logger
	service services.IChatService
	cfg     HandlerConfig
}

func NewHandler(log *slog.Logger, service services.IChatService, cfg HandlerConfig) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Handler{log: log, service: service, cfg: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "relay shutting down")

	sink := NewSink(h.cfg.BufferSize, h.cfg.Stats)
	session := h.service.Connect(sink)
	h.log.Info("connection opened", "session_id", session.ID, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writePump(ctx, cancel, conn, sink)
	h.readLoop(ctx, conn, session)

	// The session leaves its room even when the request context is gone.
	h.service.Disconnect(context.Background(), session)
	h.log.Info("connection closed", "session_id", session.ID)
	conn.Close(websocket.StatusNormalClosure, "")
}

// readLoop consumes inbound frames until the connection dies. Malformed
// frames are skipped; the peer gets no error feedback.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *runtime.Session) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug("read loop ended", "session_id", session.ID, "error", err)
			return
		}

		frame, err := decodeInbound(raw)
		if err != nil {
			h.log.Debug("frame skipped", "session_id", session.ID, "error", err)
			continue
		}

		switch f := frame.(type) {
		case joinFrame:
			h.service.Join(ctx, session, roomID(f.Room), f.Name)
		case chatFrame:
			if h.cfg.MaxContentLength > 0 && len(f.Text) > h.cfg.MaxContentLength {
				h.log.Debug("oversized chat frame skipped",
					"session_id", session.ID, "bytes", len(f.Text))
				continue
			}
			// Persist-or-drop is handled downstream; errors here are
			// deliberate silent drops.
			_ = h.service.Chat(ctx, session, roomID(f.Room), f.Sender, f.Text, f.Ts)
		case typingFrame:
			h.service.Typing(ctx, session, roomID(f.Room), f.From, f.Active)
		}
	}
}

// writePump serializes outbound events onto the socket. A write failure
// cancels the connection context, which unblocks the read loop.
func (h *Handler) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sink.Events():
			frame := toWire(evt)
			if frame == nil {
				continue
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := wsjson.Write(writeCtx, conn, frame)
			writeCancel()
			if err != nil {
				h.log.Debug("write failed, dropping connection", "error", err)
				cancel()
				return
			}
		}
	}
}
