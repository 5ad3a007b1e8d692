package actor

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pose is a fixed combination of region clips triggered by a portrait tag
// such as "gen:think". Empty fields leave the region untouched.
type Pose struct {
	Head     string `yaml:"head,omitempty" json:"head,omitempty"`
	Face     string `yaml:"face,omitempty" json:"face,omitempty"`
	LeftArm  string `yaml:"left_arm,omitempty" json:"left_arm,omitempty"`
	RightArm string `yaml:"right_arm,omitempty" json:"right_arm,omitempty"`
}

// Clip returns the clip the pose assigns to a region.
func (p Pose) Clip(r Region) string {
	switch r {
	case RegionHead:
		return p.Head
	case RegionFace:
		return p.Face
	case RegionLeftArm:
		return p.LeftArm
	case RegionRightArm:
		return p.RightArm
	default:
		return ""
	}
}

// Member describes one character of the cast: how it is addressed in tags,
// its portrait clips, and its pose table.
type Member struct {
	Name           string          `yaml:"name" json:"name" validate:"required,lowercase"`
	Display        string          `yaml:"display,omitempty" json:"display,omitempty"`                 // name tag text, defaults to title-cased Name
	PortraitHidden string          `yaml:"portrait_hidden,omitempty" json:"portrait_hidden,omitempty"` // defaults to <Display>_null
	PortraitActive string          `yaml:"portrait_active,omitempty" json:"portrait_active,omitempty"` // defaults to <Display>_default
	Poses          map[string]Pose `yaml:"poses,omitempty" json:"poses,omitempty"`
}

// DisplayName returns the name shown on the character's name tag.
func (m Member) DisplayName() string {
	if m.Display != "" {
		return m.Display
	}
	return cases.Title(language.English).String(m.Name)
}

// HiddenClip is the portrait clip played by "<name>:null".
func (m Member) HiddenClip() string {
	if m.PortraitHidden != "" {
		return m.PortraitHidden
	}
	return m.DisplayName() + "_null"
}

// ActiveClip is the portrait clip played by "<name>:active".
func (m Member) ActiveClip() string {
	if m.PortraitActive != "" {
		return m.PortraitActive
	}
	return m.DisplayName() + "_default"
}

// Pose looks up a named pose.
func (m Member) Pose(key string) (Pose, bool) {
	p, ok := m.Poses[key]
	return p, ok
}

// DefaultCast is the two-character cast of the first episode.
func DefaultCast() []Member {
	return []Member{
		{
			Name: "senku",
			Poses: map[string]Pose{
				"default": {Head: "default", LeftArm: "0", RightArm: "0"},
				"think":   {Head: "nod_right", LeftArm: "0", RightArm: "1"},
			},
		},
		{
			Name: "gen",
			Poses: map[string]Pose{
				"default":   {Head: "default", LeftArm: "0", RightArm: "0"},
				"think":     {Head: "default", LeftArm: "1", RightArm: "0"},
				"bingo":     {Head: "default", LeftArm: "0", RightArm: "1"},
				"bingo2":    {Head: "default", LeftArm: "0", RightArm: "2"},
				"reach_out": {Head: "default", LeftArm: "2", RightArm: "0"},
			},
		},
	}
}
