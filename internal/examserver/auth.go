package examserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examsrv/examsrv/internal/digest"
	"github.com/examsrv/examsrv/internal/domain"
	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
	"github.com/examsrv/examsrv/internal/validate"
)

// handleRegister validates, checks
// uniqueness, create, respond 100 CREATED.
func (s *Server) handleRegister(ctx context.Context, w *protocol.Writer, params []string) error {
	if ok, err := requireParams(w, params, 2); !ok {
		return err
	}
	username, password := params[0], params[1]

	if err := validate.Username(username); err != nil {
		s.logger.Warn("register rejected: invalid username", "username", username)
		return w.WriteSimple(codeInvalidUser, "invalid username")
	}
	if err := validate.Password(password); err != nil {
		s.logger.Warn("register rejected: weak password", "username", username)
		return w.WriteSimple(codeWeakPassword, "password too weak")
	}

	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Warn("register rejected: username exists", "username", username)
		return w.WriteSimple(codeUsernameExists, "username already exists")
	}

	if err := s.users.Create(ctx, username, digest.Hash(password)); err != nil {
		return err
	}
	s.auditLog(ctx, "INFO", username, "REGISTER", "")
	return w.WriteSimple(codeCreated, "account created")
}

// handleLogin runs the login state machine.
func (s *Server) handleLogin(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	if ok, err := requireParams(w, params, 2); !ok {
		return err
	}
	username, password := params[0], params[1]

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn("login rejected: no such account", "username", username)
		return w.WriteSimple(codeAccountNoFound, "account not found")
	}
	if err != nil {
		return err
	}
	if user.Locked {
		s.logger.Warn("login rejected: account locked", "username", username)
		return w.WriteSimple(codeAccountLocked, "account locked")
	}
	if !digest.Equal(password, user.PasswordHash) {
		s.logger.Warn("login rejected: wrong password", "username", username)
		return w.WriteSimple(codeWrongPassword, "wrong password")
	}

	if _, err := s.sessions.GetActiveByUsername(ctx, username); err == nil {
		s.logger.Warn("login rejected: already logged in", "username", username)
		return w.WriteSimple(codeAlreadyLogged, "already logged in")
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	token := fmt.Sprintf("sess_%d_%s", time.Now().Unix(), username)
	if err := s.sessions.Create(ctx, token, username); err != nil {
		return err
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.SessionToken = token
		sl.Username = username
		sl.State = registry.StateAuthenticated
	})

	s.auditLog(ctx, "INFO", username, "LOGIN", "")
	return w.WriteSimple(codeLoginOK, token)
}

// handleLogout deactivates the caller's session and resets the slot.
func (s *Server) handleLogout(ctx context.Context, idx int, w *protocol.Writer) error {
	snap := s.registry.View(idx)

	if snap.SessionToken != "" {
		if err := s.sessions.Deactivate(ctx, snap.SessionToken); err != nil {
			return err
		}
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.SessionToken = ""
		sl.Username = ""
		sl.CurrentRoom = ""
		sl.State = registry.StateConnected
	})

	s.auditLog(ctx, "INFO", snap.Username, "LOGOUT", "")
	return w.WriteSimple(codeLogoutOK, "")
}

// auditLog is a best-effort write to the append-only activity log;
// failures are logged but never fail the handler (the Log
// operation is fire-and-forget from the caller's perspective).
func (s *Server) auditLog(ctx context.Context, level, username, action, details string) {
	entry := domain.ActivityLog{
		Level:     level,
		Username:  username,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}
	if err := s.activity.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write activity log", "error", err, "action", action)
	}
}
