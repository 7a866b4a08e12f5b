package models

import "strings"

// RenderTarget selects the physical display class for a render call.
// Kindle panels are driven with a portrait framebuffer, so their output
// is rotated 90 degrees before encoding.
type RenderTarget int

const (
	TargetOther RenderTarget = iota
	TargetKindle
)

// ParseRenderTarget maps a config or request string to a RenderTarget.
// Anything that is not "kindle" renders unrotated.
func ParseRenderTarget(s string) RenderTarget {
	if strings.EqualFold(s, "kindle") {
		return TargetKindle
	}
	return TargetOther
}

func (t RenderTarget) String() string {
	if t == TargetKindle {
		return "kindle"
	}
	return "other"
}

// LineInfo labels one transit route on the board.
type LineInfo struct {
	Line        string `json:"line"`
	Destination string `json:"destination"`
}

// Upcoming is a single arrival estimate for a line.
type Upcoming struct {
	Minutes int `json:"minutes"`
}

// LineDepartures pairs a line with its upcoming arrivals. The arrival
// order comes straight from the feed and is reproduced verbatim on the
// board.
type LineDepartures struct {
	Line     LineInfo   `json:"line"`
	Upcoming []Upcoming `json:"upcoming"`
}

// StopData maps agency id -> direction id -> departures. The renderer
// treats it as read-only; sections configured for pairs missing from it
// are skipped, not failed.
type StopData map[string]map[string][]LineDepartures
