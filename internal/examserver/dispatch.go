package examserver

import (
	"context"

	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
)

// publicVerbs bypasses the authentication gate.
var publicVerbs = map[string]bool{
	"REGISTER": true,
	"LOGIN":    true,
	"PING":     true,
}

// dispatch enforces the authentication gate, then routes to the verb's
// handler. Param arity is checked per-handler since each verb has its
// own required count.
func (s *Server) dispatch(ctx context.Context, idx int, w *protocol.Writer, verb string, params []string) error {
	snap := s.registry.View(idx)

	if !publicVerbs[verb] && snap.State == registry.StateConnected {
		return w.WriteSimple(codeNotLogged, "not logged in")
	}

	switch verb {
	case "REGISTER":
		return s.handleRegister(ctx, w, params)
	case "LOGIN":
		return s.handleLogin(ctx, idx, w, params)
	case "LOGOUT":
		return s.handleLogout(ctx, idx, w)
	case "PING":
		return w.WriteSimple(codePong, "")

	case "CREATE_ROOM":
		return s.handleCreateRoom(ctx, idx, w, params)
	case "LIST_ROOMS":
		return s.handleListRooms(ctx, w, params)
	case "JOIN_ROOM":
		return s.handleJoinRoom(ctx, idx, w, params)
	case "LEAVE_ROOM":
		return s.handleLeaveRoom(ctx, idx, w, params)
	case "START_EXAM":
		return s.handleStartExam(ctx, idx, w, params)

	case "GET_EXAM":
		return s.handleGetExam(ctx, idx, w, params)
	case "SAVE_ANSWER":
		return s.handleSaveAnswer(ctx, idx, w, params)
	case "SUBMIT_EXAM":
		return s.handleSubmitExam(ctx, idx, w, params)
	case "VIEW_RESULT":
		return s.handleViewResult(ctx, idx, w, params)

	case "PRACTICE":
		return s.handlePractice(ctx, idx, w, params)
	case "SUBMIT_PRACTICE":
		return s.handleSubmitPractice(ctx, idx, w, params)

	default:
		return w.WriteSimple(codeBadCommand, "unknown command")
	}
}

// requireParams reports whether params has at least n entries, writing
// 301 SYNTAX_ERROR and returning false otherwise.
func requireParams(w *protocol.Writer, params []string, n int) (bool, error) {
	if len(params) < n {
		return false, w.WriteSimple(codeSyntaxError, "missing parameters")
	}
	return true, nil
}
