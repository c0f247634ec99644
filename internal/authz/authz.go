// Package authz classifies detections against the active room roster and
// derives the room-level threat flag. Everything here is pure: callers
// re-run Evaluate whenever the detection list or the active room changes.
package authz

import (
	"github.com/dormwatch/dormwatch/internal/detect"
	"github.com/dormwatch/dormwatch/internal/rooms"
)

// FaceStatus pairs a detection with its authorization classification.
type FaceStatus struct {
	Detection  detect.Detection `json:"detection"`
	Authorized bool             `json:"authorized"`
}

// Assessment is the evaluator output for one detection list.
type Assessment struct {
	Faces  []FaceStatus `json:"faces"`
	Threat bool         `json:"threat"`
}

// Authorized reports whether a single face is authorized. With no active
// room the display is unrestricted and every face is authorized. Otherwise
// the face must carry a real matched identity that belongs to the roster.
func Authorized(d detect.Detection, room *rooms.Room) bool {
	if room == nil {
		return true
	}
	return d.Recognized() && room.HasMember(d.MatchedIdentity)
}

// Evaluate classifies every detection and raises the threat flag iff a room
// is active, at least one face was detected, and none of them is authorized.
// A single authorized occupant suppresses the alarm: the policy signals
// "someone who belongs here is present", not "everyone present belongs".
func Evaluate(dets []detect.Detection, room *rooms.Room) Assessment {
	a := Assessment{Faces: make([]FaceStatus, len(dets))}
	anyAuthorized := false
	for i, d := range dets {
		ok := Authorized(d, room)
		a.Faces[i] = FaceStatus{Detection: d, Authorized: ok}
		if ok {
			anyAuthorized = true
		}
	}
	a.Threat = room != nil && len(dets) > 0 && !anyAuthorized
	return a
}
