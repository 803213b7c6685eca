// internal/tui/app.go
//
// The terminal roadmap board. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the board state plus widgets (spinner, details viewport)
// 2. Update: folds messages (keys, fetch results, vote verdicts) into state
// 3. View: renders state to a string
//
// Network calls run as commands and come back as messages, so the model is
// only ever touched from Update.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/roadmap/internal/api"
	"github.com/kingrea/roadmap/internal/board"
	"github.com/kingrea/roadmap/internal/config"
	"github.com/kingrea/roadmap/internal/feature"
	"github.com/kingrea/roadmap/internal/logbook"
	"github.com/kingrea/roadmap/internal/session"
	"github.com/kingrea/roadmap/internal/voting"
)

const logPanelLines = 5

// FeatureSource loads the roadmap once.
type FeatureSource interface {
	FetchFeatures(ctx context.Context) ([]feature.Feature, error)
}

// VoteSubmitter casts a vote; nil means accepted.
type VoteSubmitter interface {
	Submit(ctx context.Context, featureID string) error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithFeatureSource overrides the remote feature client.
func WithFeatureSource(src FeatureSource) AppOption {
	return func(a *App) {
		if src != nil {
			a.source = src
		}
	}
}

// WithSubmitter overrides the vote submitter.
func WithSubmitter(sub VoteSubmitter) AppOption {
	return func(a *App) {
		if sub != nil {
			a.submitter = sub
		}
	}
}

// WithLogbook overrides the activity logbook.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithCelebration overrides how long the confetti stays up.
func WithCelebration(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.celebration = d
		}
	}
}

// WithContext sets the parent context for network calls.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

type featuresLoadedMsg struct {
	features []feature.Feature
	err      error
}

type voteFinishedMsg struct {
	featureID string
	err       error
}

type celebrationDoneMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config    *config.Config
	source    FeatureSource
	submitter VoteSubmitter
	logbook   *logbook.Logbook
	ctx       context.Context

	board       *board.Board
	cursor      int
	celebration time.Duration
	confetti    string

	spinner spinner.Model
	details viewport.Model
	help    help.Model
	keys    keyMap

	width  int
	height int
}

// NewApp wires the board to the service configured in cfg. Anything not
// supplied through opts is built from cfg after the options run.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tui: config is required")
	}

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(colorAccent)

	app := &App{
		config:      cfg,
		ctx:         context.Background(),
		board:       board.New(),
		celebration: cfg.Celebration(),
		spinner:     spin,
		details:     viewport.New(60, 10),
		help:        help.New(),
		keys:        defaultKeyMap(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	if app.logbook == nil {
		lb, err := logbook.New(cfg.ActivityLogPath())
		if err != nil {
			return nil, fmt.Errorf("tui: open logbook: %w", err)
		}
		app.logbook = lb
	}
	if app.source != nil && app.submitter != nil {
		return app, nil
	}
	client := api.NewClient(cfg.BaseURL(), api.WithTimeout(cfg.Timeout()))
	if app.source == nil {
		app.source = client
	}
	if app.submitter == nil {
		lb := app.logbook
		app.submitter = voting.NewSubmitter(client, session.NewProvider(session.StoreFor(cfg)),
			voting.WithJournal(lb),
			voting.WithSessionScope(func(id string) voting.Journal { return lb.WithScope(id) }),
			voting.WithInFlightGuard(cfg.GuardInFlight()),
		)
	}
	return app, nil
}

// Board exposes the underlying state, mostly for the CLI and tests.
func (a *App) Board() *board.Board {
	return a.board
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadFeatures())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.details.Width = max(20, min(80, msg.Width-8))
		a.details.Height = max(3, msg.Height/2)
		a.help.Width = msg.Width
		return a, nil

	case spinner.TickMsg:
		if a.board.Phase() != board.PhaseLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case featuresLoadedMsg:
		if msg.err != nil {
			if a.board.Fail(msg.err) {
				a.logError("Load failed: %v", msg.err)
			}
			return a, nil
		}
		if a.board.Load(msg.features) {
			pending, completed := feature.Partition(msg.features)
			a.logInfo("Loaded %d feature(s) · %d pending · %d completed", len(msg.features), len(pending), len(completed))
		}
		return a, nil

	case voteFinishedMsg:
		return a, a.handleVoteFinished(msg)

	case celebrationDoneMsg:
		a.board.EndCelebration()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a, tea.Quit
	}

	// A notice blocks everything until it is dismissed, like alert().
	if _, ok := a.board.Notice(); ok {
		if key.Matches(msg, a.keys.Dismiss) {
			a.board.Dismiss()
		}
		return a, nil
	}

	if _, ok := a.board.Overlay(); ok {
		switch {
		case key.Matches(msg, a.keys.Close):
			a.board.CloseDetails()
			return a, nil
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.details, cmd = a.details.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}

	if a.board.Phase() != board.PhaseReady {
		return a, nil
	}
	ordered := a.ordered()
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(ordered)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Details):
		if f, ok := a.selected(); ok && a.board.OpenDetails(f.ID) {
			a.details.SetContent(f.Details)
			a.details.GotoTop()
		}
	case key.Matches(msg, a.keys.Vote):
		f, ok := a.selected()
		if !ok || f.Completed() {
			return a, nil
		}
		a.board.SetStatus(fmt.Sprintf("Voting for %s...", f.Title))
		return a, a.submitVote(f.ID)
	}
	return a, nil
}

func (a *App) handleVoteFinished(msg voteFinishedMsg) tea.Cmd {
	switch a.board.RecordVote(msg.featureID, msg.err) {
	case board.ResultAccepted:
		a.confetti = confettiLine(max(24, a.width-4), time.Now().UnixNano())
		return tea.Tick(a.celebration, func(time.Time) tea.Msg {
			return celebrationDoneMsg{}
		})
	}
	return nil
}

func (a *App) loadFeatures() tea.Cmd {
	return func() tea.Msg {
		features, err := a.source.FetchFeatures(a.ctx)
		return featuresLoadedMsg{features: features, err: err}
	}
}

func (a *App) submitVote(featureID string) tea.Cmd {
	return func() tea.Msg {
		return voteFinishedMsg{featureID: featureID, err: a.submitter.Submit(a.ctx, featureID)}
	}
}

// ordered lists pending features first, then completed, which is also the
// cursor order.
func (a *App) ordered() []feature.Feature {
	return append(a.board.Pending(), a.board.Completed()...)
}

func (a *App) selected() (feature.Feature, bool) {
	ordered := a.ordered()
	if a.cursor < 0 || a.cursor >= len(ordered) {
		return feature.Feature{}, false
	}
	return ordered[a.cursor], true
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	sections := []string{headerStyle.Render("Roadmap")}
	if a.board.Celebrating() {
		sections = append(sections, a.renderCelebration())
	}

	var content string
	switch a.board.Phase() {
	case board.PhaseLoading:
		content = fmt.Sprintf("%s Loading...", a.spinner.View())
	case board.PhaseError:
		content = errorStyle.Render(fmt.Sprintf("Error: %s", a.board.Err()))
	case board.PhaseReady:
		content = a.renderFeatures(width - 4)
	}
	if notice, ok := a.board.Notice(); ok {
		content = a.renderNotice(notice, width)
	} else if overlay, ok := a.board.Overlay(); ok {
		content = a.renderOverlay(overlay)
	}
	sections = append(sections, content)

	if panel := a.renderLogPanel(width); panel != "" {
		sections = append(sections, panel)
	}
	if status := a.board.Status(); status != "" {
		sections = append(sections, statusStyle.Render(status))
	}
	sections = append(sections, a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func (a *App) renderFeatures(width int) string {
	pending := a.board.Pending()
	completed := a.board.Completed()
	if len(pending)+len(completed) == 0 {
		return mutedStyle.Render("No features on the roadmap yet.")
	}
	var rows []string
	rows = append(rows, sectionStyle.Render(fmt.Sprintf("Pending (%d)", len(pending))))
	for i, f := range pending {
		rows = append(rows, a.renderFeature(f, i == a.cursor, width, true))
	}
	rows = append(rows, "", sectionStyle.Render(fmt.Sprintf("Completed (%d)", len(completed))))
	for i, f := range completed {
		rows = append(rows, a.renderFeature(f, len(pending)+i == a.cursor, width, false))
	}
	return strings.Join(rows, "\n")
}

func (a *App) renderFeature(f feature.Feature, selected bool, width int, votable bool) string {
	marker := "  "
	if selected {
		marker = "▸ "
	}
	title := titleStyle.Render(f.Title)
	votes := votesStyle.Render(fmt.Sprintf("%d Votes 🙌", f.Votes))
	control := ""
	if votable {
		control = " " + voteButtonStyle.Render("[ Vote ]")
	} else {
		control = " " + doneStyle.Render("✓ shipped")
	}
	line1 := fmt.Sprintf("%s%s  %s%s", marker, title, votes, control)
	line2 := "  " + mutedStyle.Render(truncate(f.Description, max(10, width-4)))
	row := line1 + "\n" + line2
	if selected {
		return selectedStyle.Render(row)
	}
	return row
}

func (a *App) renderOverlay(overlay board.Overlay) string {
	head := sectionStyle.Render(overlay.Title)
	hint := mutedStyle.Render("Esc → close")
	return overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head, a.details.View(), hint))
}

func (a *App) renderNotice(notice string, width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("⚠ "+notice),
		"",
		mutedStyle.Render("Enter → OK"),
	)
	return noticeStyle.Width(max(30, min(70, width-4))).Render(body)
}

func (a *App) renderCelebration() string {
	banner := celebrationStyle.Render("🎉 Thanks for voting! 🎉")
	return lipgloss.JoinVertical(lipgloss.Left, a.confetti, banner, a.confetti)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		MaxWidth(max(20, width)).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	if limit <= 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}
