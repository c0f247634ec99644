// Package detect holds the detection types shared between the matching
// service client, the authorization evaluator and the overlay renderer.
package detect

// UnknownIdentity is the sentinel the matching service returns when a face
// was found but no identity scored above its threshold.
const UnknownIdentity = "Unknown"

// Detection is one face found in a sampled frame. Coordinates are pixels in
// the native resolution of the submitted image, origin top-left. The JSON
// tags follow the matching service wire format.
type Detection struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// MatchedIdentity is the best match for this face, UnknownIdentity or
	// empty when there is none. MatchScore is only meaningful for a real
	// identity.
	MatchedIdentity string  `json:"match_filename"`
	MatchScore      float64 `json:"match_score"`
}

// Recognized reports whether the detection carries a real matched identity.
// An absent identity and the Unknown sentinel are equivalent.
func (d Detection) Recognized() bool {
	return d.MatchedIdentity != "" && d.MatchedIdentity != UnknownIdentity
}

// Label returns the text to display for this detection.
func (d Detection) Label() string {
	if d.MatchedIdentity == "" {
		return UnknownIdentity
	}
	return d.MatchedIdentity
}
