package web

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kingrea/roadmap/internal/board"
	"github.com/kingrea/roadmap/internal/feature"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("board.html").
	Funcs(template.FuncMap{"pathEscape": url.PathEscape}).
	ParseFS(templateFS, "templates/board.html"))

const confettiColors = 5

type confettiPiece struct {
	Left    int
	DelayMS int
	Color   int
}

type pageData struct {
	Phase          string
	Error          string
	Pending        []feature.Feature
	Completed      []feature.Feature
	Overlay        *board.Overlay
	Alert          string
	Info           string
	Status         string
	Celebrating    bool
	RefreshSeconds int
	Confetti       []confettiPiece
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	v := s.visitFor(sessionFrom(r.Context()))
	v.mu.Lock()
	defer v.mu.Unlock()
	b := s.ensureLoaded(r.Context(), v)
	b.CloseDetails()
	s.render(w, r, b)
}

// featureID returns the decoded {id} segment. Links escape ids containing
// "/" and chi matches on the raw path, so the param arrives still escaped.
func featureID(r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := featureID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	v := s.visitFor(sessionFrom(r.Context()))
	v.mu.Lock()
	defer v.mu.Unlock()
	b := s.ensureLoaded(r.Context(), v)
	if b.Phase() == board.PhaseReady && !b.OpenDetails(id) {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, b)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	id, ok := featureID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	v := s.visitFor(sessionFrom(r.Context()))

	v.mu.Lock()
	b := s.ensureLoaded(r.Context(), v)
	if b.Phase() != board.PhaseReady {
		v.mu.Unlock()
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	f, found := b.Feature(id)
	v.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	if f.Completed() {
		http.Error(w, "feature is already completed", http.StatusConflict)
		return
	}

	err := v.submitter.Submit(r.Context(), id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if b.RecordVote(id, err) == board.ResultAccepted {
		time.AfterFunc(s.settings.Celebration, func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			b.EndCelebration()
		})
	}
	if notice, ok := b.Notice(); ok {
		b.Dismiss()
		setFlash(w, "error", notice)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleReload discards the session board so the next page view fetches
// again, like reloading the page.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	v := s.visitFor(sessionFrom(r.Context()))
	v.mu.Lock()
	v.board = nil
	v.mu.Unlock()
	setFlash(w, "info", "Roadmap reloaded")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, b *board.Board) {
	data := pageData{
		Phase:       b.Phase().String(),
		Error:       b.Err(),
		Pending:     b.Pending(),
		Completed:   b.Completed(),
		Status:      b.Status(),
		Celebrating: b.Celebrating(),
	}
	if overlay, ok := b.Overlay(); ok {
		data.Overlay = &overlay
	}
	if flash, ok := flashFrom(r.Context()); ok {
		if flash.Type == "info" {
			data.Info = flash.Message
		} else {
			data.Alert = flash.Message
		}
	}
	if data.Celebrating {
		data.RefreshSeconds = int(math.Ceil(s.settings.Celebration.Seconds()))
		data.Confetti = confetti(s.now().UnixNano(), 40)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Printf("web: render: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func confetti(seed int64, n int) []confettiPiece {
	rng := rand.New(rand.NewSource(seed))
	pieces := make([]confettiPiece, n)
	for i := range pieces {
		pieces[i] = confettiPiece{
			Left:    rng.Intn(100),
			DelayMS: rng.Intn(1500),
			Color:   rng.Intn(confettiColors),
		}
	}
	return pieces
}
