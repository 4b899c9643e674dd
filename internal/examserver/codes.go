// Package examserver implements the per-connection worker and command
// dispatch: the accept loop allocates a registry slot per connection
// (following an upgrade-and-spawn shape), and each worker reads frames
// off internal/protocol, dispatches by verb (mirroring a ReadPump
// loop, but synchronous request/response instead of pump+channel), and
// writes responses back through the same frame writer.
package examserver

// Response codes: the complete taxonomy, including the practice codes.
const (
	codeCreated        = 100
	codeLoginOK        = 110
	codeRoomCreated    = 120
	codeRoomsData      = 121
	codeRoomJoinOK     = 122
	codeRoomLeaveOK    = 123
	codeStartOK        = 125
	codeResultData     = 127
	codeSubmitOK       = 130
	codeAlreadySubmit  = 131
	codeLogoutOK       = 132
	codePracticeData   = 140
	codePracticeResult = 141
	codeExamData       = 150
	codeAnswerSaved    = 160
	codePong           = 200
	codeAccountLocked  = 211
	codeAccountNoFound = 212
	codeAlreadyLogged  = 213
	codeWrongPassword  = 214
	codeNotLogged      = 221
	codeSessionExpired = 222
	codeRoomNotFound   = 223
	codeRoomInProgress = 224
	codeRoomFinished   = 225
	codeNotCreator     = 226
	codeNotInRoom      = 227
	codeRoomFull       = 228
	codeTimeExpired    = 230
	codeInvalidState   = 231
	codeBadCommand     = 300
	codeSyntaxError    = 301
	codeInvalidParams  = 302
	codeUsernameExists = 401
	codeInvalidUser    = 402
	codeWeakPassword   = 403
	codeInternalError  = 500
)
