package stage

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/dialogue-engine/pkg/actor"
)

// Config is the cast file: characters with their pose tables, and the
// symbolic sound keys usable in sound_effect tags.
type Config struct {
	Cast   []actor.Member    `yaml:"cast" validate:"required,min=1,dive"`
	Sounds map[string]string `yaml:"sounds"`
}

// DefaultConfig is the cast and sound table of the first episode.
func DefaultConfig() Config {
	return Config{
		Cast: actor.DefaultCast(),
		Sounds: map[string]string{
			"water_flow": "SFX_WaterFlow",
			"boom":       "SFX_Boom",
			"run_forest": "SFX_RunForest",
		},
	}
}

// ParseConfig decodes and validates a YAML cast file.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse cast file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and that names cannot be confused with
// reserved tag keys.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid cast file: %w", err)
	}
	seen := make(map[string]bool, len(c.Cast))
	for _, m := range c.Cast {
		if seen[m.Name] {
			return fmt.Errorf("invalid cast file: duplicate member %q", m.Name)
		}
		seen[m.Name] = true
		switch m.Name {
		case "speaker", "bg_effect", "sound_effect", "null":
			return fmt.Errorf("invalid cast file: %q is a reserved name", m.Name)
		}
	}
	return nil
}
