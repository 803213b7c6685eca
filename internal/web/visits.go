package web

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/roadmap/internal/board"
	"github.com/kingrea/roadmap/internal/session"
	"github.com/kingrea/roadmap/internal/voting"
)

const (
	sessionCookie = "roadmap_session"
	// visitTTL drops boards for browsers that went quiet.
	visitTTL = 12 * time.Hour
)

type sessionKey struct{}

// visit is one browser session: its board and its submitter. The board is
// nil until the first page view and again after a reload.
type visit struct {
	mu        sync.Mutex
	board     *board.Board
	submitter *voting.Submitter
	lastSeen  time.Time
}

// withSession makes sure every request carries a session cookie. The cookie
// has no expiry, so it lives as long as the browser session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(sessionCookie); err == nil && strings.HasPrefix(cookie.Value, session.Prefix+"-") {
			id = cookie.Value
		}
		if id == "" {
			generated, err := session.Generate(s.now())
			if err != nil {
				s.logger.Printf("web: generate session: %v", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			id = generated
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

func (s *Server) visitFor(id string) *visit {
	s.visitsMu.Lock()
	defer s.visitsMu.Unlock()
	now := s.now()
	for key, other := range s.visits {
		if key != id && now.Sub(other.lastSeen) > visitTTL {
			delete(s.visits, key)
		}
	}
	v, ok := s.visits[id]
	if !ok {
		opts := []voting.Option{voting.WithInFlightGuard(s.settings.GuardInFlight)}
		if s.journal != nil {
			opts = append(opts, voting.WithJournal(s.journal.WithScope(id)))
		}
		v = &visit{submitter: voting.NewSubmitter(s.remote, session.Static(id), opts...)}
		s.visits[id] = v
	}
	v.lastSeen = now
	return v
}

func (s *Server) visitCount() int {
	s.visitsMu.Lock()
	defer s.visitsMu.Unlock()
	return len(s.visits)
}

// ensureLoaded fetches the roadmap once per board. Caller holds v.mu.
func (s *Server) ensureLoaded(ctx context.Context, v *visit) *board.Board {
	if v.board != nil {
		return v.board
	}
	b := board.New()
	features, err := s.remote.FetchFeatures(ctx)
	if err != nil {
		b.Fail(err)
		s.logJournal("Load failed: %v", err)
	} else {
		b.Load(features)
	}
	v.board = b
	return b
}

func (s *Server) logJournal(format string, args ...any) {
	if s.journal == nil {
		return
	}
	s.journal.Error(format, args...)
}
