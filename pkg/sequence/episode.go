package sequence

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TitleClip is the animation played on the title track when an episode starts.
const TitleClip = "start_title"

// Dialogue is one story asset of an episode and the music played under it.
type Dialogue struct {
	Story string `yaml:"story" validate:"required"`
	BGM   string `yaml:"bgm,omitempty"`
}

// Episode is the ordered list of dialogues played back to back, preceded by
// a title card.
type Episode struct {
	Title          string        `yaml:"title"`
	TitleDuration  time.Duration `yaml:"title_duration" validate:"gte=0"`  // how long the title text stays up
	TitleAnimation time.Duration `yaml:"title_animation" validate:"gte=0"` // length of the title clip, dialogue starts after it
	Opening        string        `yaml:"opening,omitempty"`                // sound played with the title
	Dialogues      []Dialogue    `yaml:"dialogues" validate:"required,min=1,dive"`
}

// DefaultEpisode returns an episode with the standard title timings and no
// dialogues.
func DefaultEpisode() Episode {
	return Episode{
		Title:          "Episode 1",
		TitleDuration:  5 * time.Second,
		TitleAnimation: 2 * time.Second,
	}
}

// ParseEpisode decodes a YAML episode file over the defaults and validates it.
func ParseEpisode(data []byte) (Episode, error) {
	ep := DefaultEpisode()
	if err := yaml.Unmarshal(data, &ep); err != nil {
		return Episode{}, fmt.Errorf("failed to parse episode: %w", err)
	}
	if err := validator.New().Struct(ep); err != nil {
		return Episode{}, fmt.Errorf("invalid episode: %w", err)
	}
	return ep, nil
}

// Stories returns the story asset names in play order.
func (e Episode) Stories() []string {
	names := make([]string, 0, len(e.Dialogues))
	for _, d := range e.Dialogues {
		names = append(names, d.Story)
	}
	return names
}
