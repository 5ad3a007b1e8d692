package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/sequence"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

// ErrNotFound is returned when a story, cast or episode file does not exist.
var ErrNotFound = errors.New("not found")

// storyExts are tried in order when resolving a story name to a file.
var storyExts = []string{".yaml", ".yml", ".json"}

// preloadWorkers bounds concurrent file reads during Preload.
const preloadWorkers = 4

// AssetStore reads story assets, cast files and episode files from the
// data directory. Loaded stories are cached by name.
type AssetStore struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]narrative.Asset
}

// NewAssetStore creates a store rooted at dataDir
func NewAssetStore(dataDir string, logger *slog.Logger) *AssetStore {
	if dataDir == "" {
		dataDir = "./data"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetStore{
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[string]narrative.Asset),
	}
}

// StoriesDir returns the directory holding story assets.
func (s *AssetStore) StoriesDir() string {
	return filepath.Join(s.dataDir, "stories")
}

// ListStories returns story names mapped to their file names. Files that do
// not parse are skipped with a warning.
func (s *AssetStore) ListStories(ctx context.Context) (map[string]string, error) {
	stories := make(map[string]string)

	err := filepath.WalkDir(s.StoriesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isStoryFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read story file", "path", path, "error", err)
			return nil
		}
		if _, err := narrative.ParseScript(data); err != nil {
			s.logger.Warn("Failed to parse story file", "path", path, "error", err)
			return nil
		}

		filename := filepath.Base(path)
		stories[strings.TrimSuffix(filename, filepath.Ext(filename))] = filename
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to walk stories directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	return stories, nil
}

// LoadAsset returns the story asset called name, reading it from disk on
// first use.
func (s *AssetStore) LoadAsset(ctx context.Context, name string) (narrative.Asset, error) {
	s.mu.RLock()
	asset, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return asset, nil
	}

	if err := ctx.Err(); err != nil {
		return narrative.Asset{}, err
	}

	for _, ext := range storyExts {
		path := filepath.Join(s.StoriesDir(), name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return narrative.Asset{}, fmt.Errorf("failed to read story file: %w", err)
		}

		s.logger.Debug("Loaded story", "name", name, "path", path)
		asset = narrative.Asset{Name: name, Data: data}
		s.mu.Lock()
		s.cache[name] = asset
		s.mu.Unlock()
		return asset, nil
	}

	s.logger.Error("Story file not found", "name", name, "dir", s.StoriesDir())
	return narrative.Asset{}, fmt.Errorf("story %q: %w", name, ErrNotFound)
}

// Preload reads and parses the named stories concurrently so that broken
// assets are reported before playback starts.
func (s *AssetStore) Preload(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)

	for _, name := range names {
		name := name
		g.Go(func() error {
			asset, err := s.LoadAsset(ctx, name)
			if err != nil {
				return err
			}
			if _, err := narrative.ParseScript(asset.Data); err != nil {
				return fmt.Errorf("story %q: %w", name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to preload stories: %w", err)
	}
	s.logger.Info("Stories preloaded", "count", len(names))
	return nil
}

// Loader adapts the store to the sequencer's loader signature.
func (s *AssetStore) Loader(ctx context.Context) sequence.Loader {
	return func(name string) (narrative.Asset, error) {
		return s.LoadAsset(ctx, name)
	}
}

// LoadCast reads a cast file. A missing file falls back to the default cast.
func (s *AssetStore) LoadCast(path string) (stage.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Cast file not found, using default cast", "path", path)
		return stage.DefaultConfig(), nil
	}
	if err != nil {
		return stage.Config{}, fmt.Errorf("failed to read cast file: %w", err)
	}
	return stage.ParseConfig(data)
}

// LoadEpisode reads an episode file.
func (s *AssetStore) LoadEpisode(path string) (sequence.Episode, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sequence.Episode{}, fmt.Errorf("episode %q: %w", path, ErrNotFound)
	}
	if err != nil {
		return sequence.Episode{}, fmt.Errorf("failed to read episode file: %w", err)
	}
	return sequence.ParseEpisode(data)
}

func isStoryFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range storyExts {
		if ext == e {
			return true
		}
	}
	return false
}
