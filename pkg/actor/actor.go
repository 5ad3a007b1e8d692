package actor

import (
	"fmt"
	"strings"
)

// Region is an independently animated body part of a dialogue character.
type Region int

const (
	RegionHead Region = iota
	RegionFace
	RegionLeftArm
	RegionRightArm
	regionCount
)

// Regions lists every region in tag order.
var Regions = []Region{RegionHead, RegionFace, RegionLeftArm, RegionRightArm}

var regionNames = [regionCount]string{
	RegionHead:     "head",
	RegionFace:     "face",
	RegionLeftArm:  "left_arm",
	RegionRightArm: "right_arm",
}

// String returns the tag suffix for the region, e.g. "left_arm".
func (r Region) String() string {
	if r < 0 || r >= regionCount {
		return fmt.Sprintf("region(%d)", int(r))
	}
	return regionNames[r]
}

// ParseRegion maps a tag suffix back to its region.
func ParseRegion(s string) (Region, bool) {
	for i, name := range regionNames {
		if name == s {
			return Region(i), true
		}
	}
	return 0, false
}

// Portrait is the visibility mode of a character's portrait.
type Portrait int

const (
	PortraitHidden Portrait = iota
	PortraitActive
)

func (p Portrait) String() string {
	switch p {
	case PortraitHidden:
		return "hidden"
	case PortraitActive:
		return "active"
	default:
		return "unknown"
	}
}

// State is the presentation state of one character. It is only ever changed
// by tag dispatch.
type State struct {
	Name     string
	Regions  [regionCount]string // current clip per region, "" if never played
	Portrait Portrait
	NameTag  bool
}

// NewState returns a character with a hidden portrait and name tag.
func NewState(name string) *State {
	return &State{Name: name}
}

// Clip returns the clip last played on a region.
func (s *State) Clip(r Region) string {
	if r < 0 || r >= regionCount {
		return ""
	}
	return s.Regions[r]
}

// SetClip records the clip playing on a region.
func (s *State) SetClip(r Region, clip string) {
	if r < 0 || r >= regionCount {
		return
	}
	s.Regions[r] = clip
}

// Track returns the animator track name for a region of a character,
// e.g. "senku.left_arm".
func Track(name string, r Region) string {
	return strings.ToLower(name) + "." + r.String()
}

// PortraitTrack returns the portrait track name of a character.
func PortraitTrack(name string) string {
	return strings.ToLower(name) + ".portrait"
}
