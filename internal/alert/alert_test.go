package alert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dormwatch/dormwatch/internal/monitor"
)

func TestNewEventMapsTransitions(t *testing.T) {
	at := time.Now()

	raised := newEvent(monitor.ThreatEvent{Raised: true, RoomID: "suite", FaceCount: 2, At: at})
	if raised.Type != "threat_raised" {
		t.Errorf("expected threat_raised, got %s", raised.Type)
	}
	if raised.RoomID != "suite" || raised.FaceCount != 2 || !raised.At.Equal(at) {
		t.Errorf("event fields not carried over: %+v", raised)
	}
	if raised.ID == "" {
		t.Error("event must carry a unique id")
	}

	cleared := newEvent(monitor.ThreatEvent{Raised: false})
	if cleared.Type != "threat_cleared" {
		t.Errorf("expected threat_cleared, got %s", cleared.Type)
	}
	if cleared.ID == raised.ID {
		t.Error("each event needs its own id")
	}
}

func TestEventSerializesWithoutEmptyRoom(t *testing.T) {
	payload, err := json.Marshal(newEvent(monitor.ThreatEvent{Raised: true}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["room_id"]; ok {
		t.Error("empty room id should be omitted from the payload")
	}
	if decoded["type"] != "threat_raised" {
		t.Errorf("unexpected type: %v", decoded["type"])
	}
}
