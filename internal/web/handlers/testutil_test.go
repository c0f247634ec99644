package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/detect"
	"github.com/dormwatch/dormwatch/internal/monitor"
	"github.com/dormwatch/dormwatch/internal/rooms"
)

// testDirectory creates a directory with one permanent and one user room.
func testDirectory(t *testing.T) *rooms.Directory {
	t.Helper()

	dir := rooms.NewDirectory()
	err := dir.Seed(rooms.Seed{Rooms: []rooms.SeedRoom{
		{ID: "front-desk", Name: "Front Desk", Members: []string{"Dana Whitfield"}},
	}})
	if err != nil {
		t.Fatalf("failed to seed directory: %v", err)
	}
	if _, err := dir.Create("Study Lounge"); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	if _, err := dir.AddMember("study-lounge", "Alice Johnson"); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return dir
}

type stubMatcher struct {
	detections []detect.Detection
	err        error
}

func (s stubMatcher) ProcessFrame(ctx context.Context, jpegData []byte) ([]detect.Detection, error) {
	return s.detections, s.err
}

// blockedClock never ticks, so handler tests see exactly the first sample.
type blockedClock struct{}

func (blockedClock) Sleep(ctx context.Context, d time.Duration) bool {
	<-ctx.Done()
	return false
}

// testMonitor creates a monitor backed by a synthetic camera.
func testMonitor(t *testing.T, dir *rooms.Directory, m monitor.Matcher) *monitor.Monitor {
	t.Helper()

	source := capture.NewSource(capture.NewPattern(160, 120))
	mon := monitor.New(source, m, dir, monitor.Options{Clock: blockedClock{}})
	t.Cleanup(mon.StopCamera)
	return mon
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONErrorContains checks that the response is a JSON error mentioning
// the expected fragment. Directory errors carry wrapped context, so exact
// matches would be brittle.
func assertJSONErrorContains(t *testing.T, recorder *httptest.ResponseRecorder, fragment string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if !strings.Contains(result["error"], fragment) {
		t.Errorf("expected error containing '%s', got '%s'", fragment, result["error"])
	}
}
