package examserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/examsrv/examsrv/internal/registry"
	"github.com/examsrv/examsrv/internal/store"
)

// Server holds every dependency a connection worker or the sweeper
// needs: the session registry, one repository per store entity, and
// the logger. Follows a Dependencies-struct constructor pattern,
// generalized from an HTTP mux's route deps to a TCP worker's handler
// deps.
type Server struct {
	registry *registry.Registry
	users    *store.UserRepository
	sessions *store.SessionRepository
	rooms    *store.RoomRepository
	questions *store.QuestionRepository
	results  *store.ExamResultRepository
	practiceResults *store.PracticeResultRepository
	activity *store.ActivityLogRepository

	practice *practiceTable

	logger *slog.Logger

	sessionIdleTimeout time.Duration
}

// Deps bundles the repositories New needs.
type Deps struct {
	Registry           *registry.Registry
	Users              *store.UserRepository
	Sessions           *store.SessionRepository
	Rooms              *store.RoomRepository
	Questions          *store.QuestionRepository
	Results            *store.ExamResultRepository
	PracticeResults    *store.PracticeResultRepository
	Activity           *store.ActivityLogRepository
	Logger             *slog.Logger
	SessionIdleTimeout time.Duration
}

func New(d Deps) *Server {
	return &Server{
		registry:           d.Registry,
		users:              d.Users,
		sessions:           d.Sessions,
		rooms:              d.Rooms,
		questions:          d.Questions,
		results:            d.Results,
		practiceResults:    d.PracticeResults,
		activity:           d.Activity,
		practice:           newPracticeTable(),
		logger:             d.Logger,
		sessionIdleTimeout: d.SessionIdleTimeout,
	}
}

// Serve runs the accept loop until ctx is cancelled or the listener
// errors. Each accepted connection is handled in its own goroutine,
// following a per-request-goroutine server model but applied to
// long-lived TCP workers instead of short HTTP handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

// handleConn allocates a registry slot for the connection's lifetime,
// runs the read-dispatch-write loop, and tears the slot down (with
// session deactivation) on disconnect.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()

	idx, err := s.registry.Allocate(conn)
	if err != nil {
		s.logger.Error("registry full, rejecting connection", "remote", remote)
		w := newFrameWriter(conn)
		_ = w.WriteSimple(codeInternalError, "Server full")
		_ = conn.Close()
		return
	}

	s.logger.Info("connection accepted", "remote", remote, "slot", idx)

	defer func() {
		s.teardown(ctx, idx, remote)
		_ = conn.Close()
	}()

	s.worker(ctx, idx, conn)
}

// teardown deactivates any active session still tied to this slot and
// frees the slot back to the registry.
func (s *Server) teardown(ctx context.Context, idx int, remote string) {
	snap := s.registry.View(idx)
	s.registry.Free(idx)

	if snap.SessionToken != "" {
		if err := s.sessions.Deactivate(ctx, snap.SessionToken); err != nil {
			s.logger.Error("failed to deactivate session on disconnect", "error", err, "username", snap.Username)
		}
	}
	s.logger.Info("connection closed", "remote", remote, "slot", idx, "username", snap.Username)
}
