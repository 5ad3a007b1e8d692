package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

func TestStoryValidator_ValidateData(t *testing.T) {
	tests := []struct {
		name        string
		story       string
		wantErr     string
		wantWarning string
	}{
		{
			name: "valid story",
			story: `
knots:
  start:
    - text: "Ten billion percent!"
      tags: ["speaker:senku", "senku:think", "sound_effect:boom", "bg_effect:lab_day"]
    - text: "Which way?"
      choices:
        - text: Left
          divert: left_path
        - text: Right
          divert: END
  left_path:
    - text: "Left it is."
      tags: ["gen:bingo", "gen_face:gen_face_smile"]
`,
		},
		{
			name:    "malformed tag",
			story:   "knots:\n  start:\n    - text: hi\n      tags: [\"speaker\"]\n",
			wantErr: "malformed",
		},
		{
			name:    "unknown tag key",
			story:   "knots:\n  start:\n    - text: hi\n      tags: [\"kohaku:active\"]\n",
			wantErr: "unknown tag",
		},
		{
			name:    "unknown speaker",
			story:   "knots:\n  start:\n    - text: hi\n      tags: [\"speaker:chrome\"]\n",
			wantErr: "speaker",
		},
		{
			name:    "unknown pose",
			story:   "knots:\n  start:\n    - text: hi\n      tags: [\"senku:bingo\"]\n",
			wantErr: "pose",
		},
		{
			name:    "unknown sound",
			story:   "knots:\n  start:\n    - text: hi\n      tags: [\"sound_effect:thunder\"]\n",
			wantErr: "sound",
		},
		{
			name: "too many choices",
			story: `
knots:
  start:
    - text: "Pick"
      choices:
        - {text: a, divert: END}
        - {text: b, divert: END}
        - {text: c, divert: END}
        - {text: d, divert: END}
`,
			wantErr: "4 choices",
		},
		{
			name:    "knot name not snake_case",
			story:   "start: Intro\nknots:\n  Intro:\n    - text: hi\n",
			wantErr: "snake_case",
		},
		{
			name:    "bad divert",
			story:   "knots:\n  start:\n    - text: hi\n      divert: nowhere\n",
			wantErr: "failed to parse",
		},
		{
			name:        "empty final line with tags",
			story:       "knots:\n  start:\n    - text: hi\n    - text: \"\"\n      tags: [\"bg_effect:fade\"]\n",
			wantWarning: "empty final line",
		},
		{
			name:        "unreachable knot",
			story:       "knots:\n  start:\n    - text: hi\n  orphan:\n    - text: lost\n",
			wantWarning: "never reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewStoryValidator(stage.DefaultConfig(), 3)
			err := v.validateData("story.yaml", []byte(tt.story))

			if tt.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(strings.ToLower(err.Error()), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
			}

			if tt.wantWarning != "" {
				found := false
				for _, w := range v.warnings {
					if strings.Contains(w, tt.wantWarning) {
						found = true
					}
				}
				if !found {
					t.Errorf("warnings %v do not contain %q", v.warnings, tt.wantWarning)
				}
			}
		})
	}
}

func TestStoryValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "lab_intro.yaml")
	bad := filepath.Join(dir, "Lab-Intro.yaml")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{good, bad, txt} {
		if err := os.WriteFile(p, []byte("knots:\n  start:\n    - text: hi\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	v := NewStoryValidator(stage.DefaultConfig(), 3)
	if err := v.validateFile(good); err != nil {
		t.Errorf("validateFile(%s) error = %v", good, err)
	}
	if err := v.validateFile(bad); err == nil {
		t.Error("expected filename error")
	}
	if err := v.validateFile(txt); err == nil {
		t.Error("expected extension error")
	}
}

func TestIsValidStoryFilename(t *testing.T) {
	tests := map[string]bool{
		"lab_intro":   true,
		"x.lab_intro": true,
		"a":           true,
		"LabIntro":    false,
		"lab-intro":   false,
		"_lab":        false,
	}
	for name, want := range tests {
		if got := isValidStoryFilename(name); got != want {
			t.Errorf("isValidStoryFilename(%q) = %v, want %v", name, got, want)
		}
	}
}
