// Package tags parses the key:value metadata attached to narrative lines and
// dispatches each one to the stage.
package tags

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved tag keys. Character keys come from the cast.
const (
	KeySpeaker     = "speaker"
	KeyBackground  = "bg_effect"
	KeySoundEffect = "sound_effect"
)

// Null is the value that hides a speaker or portrait.
const Null = "null"

// Active shows a portrait without changing its pose.
const Active = "active"

var (
	ErrMalformedTag   = errors.New("malformed tag")
	ErrUnknownTag     = errors.New("unknown tag key")
	ErrUnknownSpeaker = errors.New("unknown speaker")
	ErrUnknownPose    = errors.New("unknown pose")
	ErrUnknownSound   = errors.New("unknown sound effect")
)

// Tag is a parsed key:value pair.
type Tag struct {
	Key   string
	Value string
}

func (t Tag) String() string {
	return t.Key + ":" + t.Value
}

// Parse splits a raw tag on ':' and trims both parts. A tag that does not
// split into exactly two non-empty parts is malformed.
func Parse(raw string) (Tag, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return Tag{}, fmt.Errorf("%w: %q has %d parts", ErrMalformedTag, raw, len(parts))
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" || value == "" {
		return Tag{}, fmt.Errorf("%w: %q has an empty part", ErrMalformedTag, raw)
	}
	return Tag{Key: key, Value: value}, nil
}

// ParseAll parses every raw tag in order, skipping malformed ones. The
// returned error joins one diagnostic per skipped tag.
func ParseAll(raw []string) ([]Tag, error) {
	parsed := make([]Tag, 0, len(raw))
	var errs []error
	for _, r := range raw {
		t, err := Parse(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, t)
	}
	return parsed, errors.Join(errs...)
}
