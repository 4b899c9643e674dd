package examserver

import (
	"sync"
	"time"

	"github.com/examsrv/examsrv/internal/domain"
)

// practiceTable holds live practice sessions, keyed by practice id.
// Deliberately a separate mutex from the session registry: practice
// sessions never broadcast and never iterate alongside room-scoped
// slots, so sharing registry_lock would only add contention neither
// needs.
type practiceTable struct {
	mu       sync.Mutex
	sessions map[string]*domain.PracticeSession
}

func newPracticeTable() *practiceTable {
	return &practiceTable{sessions: make(map[string]*domain.PracticeSession)}
}

func (t *practiceTable) put(p *domain.PracticeSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[p.ID] = p
}

func (t *practiceTable) get(id string) (*domain.PracticeSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.sessions[id]
	return p, ok
}

func (t *practiceTable) delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

// expired returns a snapshot of every session whose deadline has
// passed as of now, for the sweeper's practice-expiry pass.
func (t *practiceTable) expired(now time.Time) []*domain.PracticeSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*domain.PracticeSession
	for _, p := range t.sessions {
		if p.Expired(now) {
			out = append(out, p)
		}
	}
	return out
}
