package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/dialogue-engine/internal/config"
	"github.com/jwebster45206/dialogue-engine/internal/logger"
	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/internal/storage"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/sequence"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	w, closeLog, err := logger.OpenFile(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeLog() // Ignore error in defer
	}()
	log := logger.Setup(cfg, w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := storage.NewAssetStore(cfg.DataDir, log)
	castCfg, err := store.LoadCast(cfg.CastFile)
	if err != nil {
		return err
	}

	rec := stage.NewRecorder()
	sched := schedule.New()
	director := dialogue.NewDirector(cfg.Dialogue(), sched, stage.New(castCfg, rec, rec.AudioPlayer(), log), log)

	pb := &playback{
		sched:    sched,
		director: director,
		rec:      rec,
		load:     store.Loader(ctx),
		interval: cfg.FrameInterval(),
		logger:   log,
	}
	director.Subscribe(pb)

	if cfg.RedisURL != "" {
		client, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// playback works without the event feed
			logger.WithError(log, err).Warn("Redis unavailable, dialogue events will not be published")
		} else {
			defer func() {
				_ = client.Close()
			}()
			b := events.NewBroadcaster(client, log)
			director.Subscribe(b)
			go func() {
				_ = b.Run(ctx)
			}()
		}
	}

	ep, err := store.LoadEpisode(cfg.Episode)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info("No episode file, choosing stories interactively", "path", cfg.Episode)
	case err != nil:
		return err
	default:
		if err := store.Preload(ctx, ep.Stories()); err != nil {
			return err
		}
		pb.seq = sequence.New(ep, director, sched, pb.load, log)
	}

	listStories := func() ([]string, error) {
		stories, err := store.ListStories(ctx)
		if err != nil {
			return nil, err
		}
		return storyNames(stories), nil
	}

	log.Info("Console started", "data_dir", cfg.DataDir, "episode", pb.seq != nil)

	p := tea.NewProgram(NewConsoleUI(pb, listStories),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	slog.Info("Console stopped")
	return nil
}

func storyNames(stories map[string]string) []string {
	names := make([]string, 0, len(stories))
	for name := range stories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
