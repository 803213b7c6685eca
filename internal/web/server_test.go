package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/roadmap/internal/api"
	"github.com/kingrea/roadmap/internal/config"
	"github.com/kingrea/roadmap/internal/feature"
	"github.com/kingrea/roadmap/internal/logbook"
	"github.com/kingrea/roadmap/internal/testutil"
)

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("ROADMAP_WEB_PORT", "9001")
	t.Setenv("ROADMAP_WEB_HOST", "0.0.0.0")
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.Celebration != 3*time.Second {
		t.Fatalf("expected default celebration, got %s", settings.Celebration)
	}
	if !settings.GuardInFlight {
		t.Fatalf("expected in-flight guard by default")
	}
}

func TestBoardRendersPendingAndCompleted(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)

	body := get(t, client, base+"/")
	for _, want := range []string{"Pending (2)", "Completed (1)", "Dark mode", "Export CSV", "4 Votes", `action="/features/f1/vote"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, `action="/features/f2/vote"`) {
		t.Fatalf("completed feature must not render a vote control")
	}
	if sessionCookieValue(t, client, base) == "" {
		t.Fatalf("expected a session cookie")
	}

	get(t, client, base+"/")
	if svc.Fetches() != 1 {
		t.Fatalf("board should fetch once per session, got %d fetches", svc.Fetches())
	}
}

func TestAcceptedVoteCelebratesThenClears(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	_, base := newTestServer(t, svc, 50*time.Millisecond)
	client := newBrowser(t)
	get(t, client, base+"/")

	body := post(t, client, base+"/features/f1/vote", http.StatusOK)
	if !strings.Contains(body, "5 Votes") {
		t.Fatalf("expected optimistic increment:\n%s", body)
	}
	if !strings.Contains(body, "Thanks for voting!") {
		t.Fatalf("expected celebration:\n%s", body)
	}
	votes := svc.Votes()
	if len(votes) != 1 || votes[0].FeatureID != "f1" {
		t.Fatalf("unexpected votes: %+v", votes)
	}
	if votes[0].SessionID != sessionCookieValue(t, client, base) {
		t.Fatalf("vote should carry the browser session id, got %s", votes[0].SessionID)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		body = get(t, client, base+"/")
		if !strings.Contains(body, "Thanks for voting!") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("celebration never cleared")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(body, "5 Votes") {
		t.Fatalf("count should survive the celebration:\n%s", body)
	}
}

func TestRejectedVoteShowsAlertOnce(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	svc.Reject("Already voted")
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)
	get(t, client, base+"/")

	body := post(t, client, base+"/features/f1/vote", http.StatusOK)
	if !strings.Contains(body, `role="alertdialog"`) || !strings.Contains(body, "Already voted") {
		t.Fatalf("expected alert with server message:\n%s", body)
	}
	if !strings.Contains(body, "4 Votes") || strings.Contains(body, "Thanks for voting!") {
		t.Fatalf("rejected vote must not change the board:\n%s", body)
	}
	body = get(t, client, base+"/")
	if strings.Contains(body, "Already voted") {
		t.Fatalf("alert should be shown only once")
	}
}

func TestTransportFailureIsJournaled(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	svc.SetVerdict(func(api.VoteRequest) (int, any) {
		return http.StatusOK, "not an object"
	})
	srv, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)
	get(t, client, base+"/")

	body := post(t, client, base+"/features/f1/vote", http.StatusOK)
	if strings.Contains(body, `role="alertdialog"`) {
		t.Fatalf("transport failures must not alert")
	}
	if !strings.Contains(body, "Vote not sent:") {
		t.Fatalf("expected status line:\n%s", body)
	}
	lines, _ := srv.journal.Tail(10)
	if !strings.Contains(strings.Join(lines, "\n"), "Error voting:") {
		t.Fatalf("journal missing vote error: %v", lines)
	}
}

func TestFetchFailureIsTerminalUntilReload(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	svc.FailFetch(http.StatusServiceUnavailable)
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)

	body := get(t, client, base+"/")
	if !strings.Contains(body, "Error: Failed to fetch data") {
		t.Fatalf("expected error page:\n%s", body)
	}
	svc.FailFetch(0)
	body = get(t, client, base+"/")
	if !strings.Contains(body, "Error: Failed to fetch data") {
		t.Fatalf("error phase must stick without a reload")
	}

	body = post(t, client, base+"/reload", http.StatusOK)
	if !strings.Contains(body, "Pending (2)") {
		t.Fatalf("reload should fetch again:\n%s", body)
	}
	if svc.Fetches() != 2 {
		t.Fatalf("expected two fetches, got %d", svc.Fetches())
	}
}

func TestDetailsOverlay(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)

	body := get(t, client, base+"/features/f2")
	if !strings.Contains(body, `id="details"`) || !strings.Contains(body, "Already live for all plans.") {
		t.Fatalf("expected details overlay:\n%s", body)
	}
	body = get(t, client, base+"/")
	if strings.Contains(body, `id="details"`) {
		t.Fatalf("overlay should close on the plain board")
	}

	resp, err := client.Get(base + "/features/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown feature, got %d", resp.StatusCode)
	}
}

func TestFeatureIDWithSlash(t *testing.T) {
	features := []feature.Feature{
		{ID: "a/b", Title: "Nested id", Details: "Slash in the id.", Votes: 1, Status: "Open"},
	}
	svc := testutil.NewService(t, features)
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)

	body := get(t, client, base+"/")
	if !strings.Contains(body, `action="/features/a%2Fb/vote"`) || !strings.Contains(body, `href="/features/a%2Fb"`) {
		t.Fatalf("links should escape the id:\n%s", body)
	}
	body = get(t, client, base+"/features/a%2Fb")
	if !strings.Contains(body, "Slash in the id.") {
		t.Fatalf("expected details overlay:\n%s", body)
	}
	body = post(t, client, base+"/features/a%2Fb/vote", http.StatusOK)
	if !strings.Contains(body, "2 Votes") {
		t.Fatalf("expected increment:\n%s", body)
	}
	votes := svc.Votes()
	if len(votes) != 1 || votes[0].FeatureID != "a/b" {
		t.Fatalf("vote should carry the decoded id, got %+v", votes)
	}
}

func TestCompletedFeatureRefusesVote(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	_, base := newTestServer(t, svc, time.Second)
	client := newBrowser(t)
	get(t, client, base+"/")

	post(t, client, base+"/features/f2/vote", http.StatusConflict)
	if len(svc.Votes()) != 0 {
		t.Fatalf("no vote should reach the service")
	}
}

func TestBrowsersGetSeparateSessions(t *testing.T) {
	svc := testutil.NewService(t, testutil.SampleFeatures())
	_, base := newTestServer(t, svc, time.Second)
	first, second := newBrowser(t), newBrowser(t)

	post(t, first, base+"/features/f1/vote", http.StatusOK)
	post(t, second, base+"/features/f1/vote", http.StatusOK)
	votes := svc.Votes()
	if len(votes) != 2 {
		t.Fatalf("expected 2 votes, got %d", len(votes))
	}
	if votes[0].SessionID == votes[1].SessionID {
		t.Fatalf("browsers must not share a session id")
	}
}

func TestServerStartServesHealth(t *testing.T) {
	svc := testutil.NewService(t, nil)
	settings := Settings{Host: "127.0.0.1", Port: 0}
	srv := NewServer(settings, api.NewClient(svc.URL()))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	if srv.Status() != StatusReady {
		t.Fatalf("expected ready status, got %s", srv.Status())
	}
	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != string(StatusReady) {
		t.Fatalf("unexpected health status %q", health.Status)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected error starting twice")
	}
}

func newTestServer(t *testing.T, svc *testutil.Service, celebration time.Duration) (*Server, string) {
	t.Helper()
	lb, err := logbook.New(t.TempDir() + "/activity.log")
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	srv := NewServer(Settings{Celebration: celebration, GuardInFlight: true},
		api.NewClient(svc.URL()),
		WithJournal(lb))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func get(t *testing.T, client *http.Client, target string) string {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("get %s: %v", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: status %d", target, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func post(t *testing.T, client *http.Client, target string, wantStatus int) string {
	t.Helper()
	resp, err := client.PostForm(target, url.Values{})
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("post %s: status %d, want %d", target, resp.StatusCode, wantStatus)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func sessionCookieValue(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	return ""
}
