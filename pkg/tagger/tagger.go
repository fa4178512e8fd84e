// Package tagger runs the audio tagging models that feed genre aggregation.
package tagger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Model names a tagging model variant: a training dataset and a backbone.
type Model string

const (
	MSDMusicnn Model = "MSD_musicnn"
	MSDVGG     Model = "MSD_vgg"
	MTTMusicnn Model = "MTT_musicnn"
	MTTVGG     Model = "MTT_vgg"

	TopNDefault = 5
)

// DefaultModels is the fixed run order. Aggregation breaks score ties by
// first-seen tag, so the order is part of the result.
var DefaultModels = []Model{MSDMusicnn, MSDVGG, MTTMusicnn, MTTVGG}

// Tagger returns the topN most relevant tags for an audio file.
type Tagger interface {
	TopTags(ctx context.Context, file string, model Model, topN int) ([]string, error)
}

// ParseModels converts configured model names. Every aggregation takes one
// tag list per model, so exactly genre.ListCount distinct known models are
// required.
func ParseModels(names []string) ([]Model, error) {
	if len(names) != genre.ListCount {
		return nil, fmt.Errorf("expected %d tagging models, got %d", genre.ListCount, len(names))
	}

	models := make([]Model, 0, len(names))
	seen := make(map[Model]bool, len(names))
	for _, n := range names {
		m := Model(n)
		if !slices.Contains(DefaultModels, m) {
			return nil, fmt.Errorf("unknown tagging model: %q", n)
		}
		if seen[m] {
			return nil, fmt.Errorf("duplicate tagging model: %q", n)
		}
		seen[m] = true
		models = append(models, m)
	}
	return models, nil
}

// RunModels runs every model against file concurrently and returns the tag
// lists in model order. Any failure cancels the remaining runs.
func RunModels(ctx context.Context, t Tagger, file string, topN int, models []Model) ([]genre.TagList, error) {
	if t == nil {
		return nil, fmt.Errorf("tagger required")
	}
	if len(models) == 0 {
		models = DefaultModels
	}

	lists := make([]genre.TagList, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range models {
		g.Go(func() error {
			start := time.Now()
			tags, err := t.TopTags(gctx, file, m, topN)
			metrics.ObserveTagger(string(m), time.Since(start), err)
			if err != nil {
				return fmt.Errorf("tagging %s with %s: %w", file, m, err)
			}
			lists[i] = tags
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}
