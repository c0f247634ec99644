package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestProcessFrameParsesDetections(t *testing.T) {
	var gotBody struct {
		Image string `json:"image"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/process-frame" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("could not decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"face_count": 2,
			"faces": [
				{"x": 10, "y": 20, "width": 30, "height": 40, "match_filename": "Alice Johnson", "match_score": 0.91},
				{"x": 50, "y": 60, "width": 30, "height": 40, "match_filename": "Unknown", "match_score": 0.12}
			]
		}`))
	}))
	defer server.Close()

	client, err := New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	dets, err := client.ProcessFrame(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}

	if !strings.HasPrefix(gotBody.Image, "data:image/jpeg;base64,") {
		t.Errorf("image payload missing data URL prefix: %.40s", gotBody.Image)
	}
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	if dets[0].MatchedIdentity != "Alice Johnson" || dets[0].MatchScore != 0.91 {
		t.Errorf("unexpected first detection: %+v", dets[0])
	}
	if dets[0].X != 10 || dets[0].Y != 20 || dets[0].Width != 30 || dets[0].Height != 40 {
		t.Errorf("unexpected geometry: %+v", dets[0])
	}
	if dets[0].Recognized() == false {
		t.Error("Alice should be recognized")
	}
	if dets[1].Recognized() {
		t.Error("Unknown must not count as recognized")
	}
}

func TestProcessFrameEmptyResponseIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "face_count": 0, "faces": []}`))
	}))
	defer server.Close()

	client, _ := New(server.URL, time.Second)
	dets, err := client.ProcessFrame(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("expected no detections, got %d", len(dets))
	}
}

func TestProcessFrameServerErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := New(server.URL, time.Second)
	if _, err := client.ProcessFrame(context.Background(), []byte("jpeg")); !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestProcessFrameUnparseableResponseIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, _ := New(server.URL, time.Second)
	if _, err := client.ProcessFrame(context.Background(), []byte("jpeg")); !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestProcessFrameUnreachableServiceIsTransport(t *testing.T) {
	client, _ := New("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := client.ProcessFrame(context.Background(), []byte("jpeg")); !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client, _ := New(server.URL, time.Second)
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestNewRejectsEmptyURL(t *testing.T) {
	if _, err := New("", time.Second); err == nil {
		t.Error("expected error for empty URL")
	}
}
