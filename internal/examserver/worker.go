package examserver

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
)

func newFrameWriter(w io.Writer) *protocol.Writer {
	return protocol.NewWriter(w)
}

// worker runs the read-dispatch-write loop for one connection until
// the peer disconnects or a protocol error forces teardown, using
// length-complete I/O throughout.
func (s *Server) worker(ctx context.Context, idx int, conn net.Conn) {
	r := protocol.NewReader(conn)
	w := newFrameWriter(conn)

	for {
		frame, err := r.ReadFrame()
		if err != nil {
			s.logDisconnectReason(idx, err)
			return
		}

		s.touchActivity(ctx, idx)

		if frame.Kind == protocol.KindData {
			_ = w.WriteSimple(codeSyntaxError, "unexpected data frame")
			continue
		}

		if err := s.dispatch(ctx, idx, w, frame.Verb, frame.Params); err != nil {
			s.logger.Error("handler error", "verb", frame.Verb, "error", err)
			if writeErr := w.WriteSimple(codeInternalError, "internal error"); writeErr != nil {
				return
			}
		}
	}
}

func (s *Server) logDisconnectReason(idx int, err error) {
	if errors.Is(err, protocol.ErrClosed) {
		s.logger.Info("peer disconnected", "slot", idx)
		return
	}
	s.logger.Warn("connection read error", "slot", idx, "error", err)
}

// touchActivity stamps the slot's last-activity time, and best-effort
// touches the session row if one is active on this slot; the row's
// last_active is what the sweeper's idle-session pass compares.
func (s *Server) touchActivity(ctx context.Context, idx int) {
	now := time.Now()
	var token string
	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.LastActivity = now
		token = sl.SessionToken
	})
	if token != "" {
		if err := s.sessions.Touch(ctx, token, now); err != nil {
			s.logger.Warn("failed to touch session activity", "error", err)
		}
	}
}
