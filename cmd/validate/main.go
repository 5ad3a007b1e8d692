package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
	"github.com/jwebster45206/dialogue-engine/pkg/tags"
)

func main() {
	castFile := flag.String("cast", "", "cast file to check tags against (default cast when empty)")
	slots := flag.Int("slots", 3, "number of choice slots in the UI")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-cast cast.yaml] [-slots 3] <story.yaml>...\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	castCfg, err := loadCast(*castFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load cast: %v\n", err)
		os.Exit(1)
	}

	validator := NewStoryValidator(castCfg, *slots)
	failed := false
	for _, filename := range flag.Args() {
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Printf("warning: %s\n", w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

func loadCast(path string) (stage.Config, error) {
	if path == "" {
		return stage.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return stage.Config{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return stage.ParseConfig(data)
}

// StoryValidator checks story assets against a cast: every tag must parse and
// be handled, choices must fit the UI, and knot names must be snake_case.
type StoryValidator struct {
	castCfg  stage.Config
	slots    int
	errors   []string
	warnings []string
}

func NewStoryValidator(castCfg stage.Config, slots int) *StoryValidator {
	return &StoryValidator{castCfg: castCfg, slots: slots}
}

func (v *StoryValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return fmt.Errorf("story file must have .yaml, .yml or .json extension: %s", baseName)
	}

	if !isValidStoryFilename(strings.TrimSuffix(baseName, ext)) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., lab_intro.yaml, not lab-intro.yaml or LabIntro.yaml)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.validateData(filename, data)
}

func (v *StoryValidator) validateData(filename string, data []byte) error {
	v.errors = nil
	v.warnings = nil

	script, err := narrative.ParseScript(data)
	if err != nil {
		return fmt.Errorf("file %s failed to parse: %w", filename, err)
	}

	v.validateScript(script)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *StoryValidator) validateScript(s *narrative.Script) {
	// tags are dispatched against a scratch stage so that speaker, pose and
	// sound values are checked as well as keys
	scratch := stage.New(v.castCfg, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	interp := tags.NewInterpreter(scratch, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, knot := range s.KnotNames() {
		v.validateIDFormat("knot", knot)

		steps := s.Knots[knot]
		for i, step := range steps {
			where := fmt.Sprintf("knot %s line %d", knot, i+1)

			for _, raw := range step.Tags {
				t, err := tags.Parse(raw)
				if err != nil {
					v.addError(fmt.Sprintf("%s: %v", where, err))
					continue
				}
				if err := interp.Dispatch(t); err != nil {
					v.addError(fmt.Sprintf("%s: tag %q: %v", where, raw, err))
				}
			}

			if n := len(step.Choices); n > v.slots {
				v.addError(fmt.Sprintf("%s offers %d choices but the UI has %d slots", where, n, v.slots))
			}
			if len(step.Choices) > 0 && step.Divert != "" {
				v.addWarning(fmt.Sprintf("%s has both choices and a divert; the divert is taken before the choices are shown", where))
			}

			last := i == len(steps)-1 && step.Divert == "" && len(step.Choices) == 0
			if strings.TrimSpace(step.Text) == "" && last && len(step.Tags) > 0 {
				v.addWarning(fmt.Sprintf("%s is an empty final line; its tags will not be applied", where))
			}
		}
	}

	for _, knot := range unreachable(s) {
		v.addWarning(fmt.Sprintf("knot %s is never reached", knot))
	}
}

// unreachable returns the knots no divert or choice leads to from the start.
func unreachable(s *narrative.Script) []string {
	seen := map[string]bool{s.Start: true}
	queue := []string{s.Start}
	for len(queue) > 0 {
		knot := queue[0]
		queue = queue[1:]
		for _, step := range s.Knots[knot] {
			targets := []string{step.Divert}
			for _, c := range step.Choices {
				targets = append(targets, c.Divert)
			}
			for _, t := range targets {
				if t == "" || t == narrative.End || seen[t] {
					continue
				}
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}

	var out []string
	for _, knot := range s.KnotNames() {
		if !seen[knot] {
			out = append(out, knot)
		}
	}
	return out
}

func (v *StoryValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *StoryValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *StoryValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidStoryFilename(name string) bool {
	// Allow 'x.' prefix for experimental stories
	name = strings.TrimPrefix(name, "x.")
	return validIDRegex.MatchString(name)
}
