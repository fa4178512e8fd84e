package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"github.com/mchmarny/genrelay/pkg/queue"
	"github.com/mchmarny/genrelay/pkg/storage"
	"github.com/mchmarny/genrelay/pkg/tagger"
	"github.com/mchmarny/genrelay/pkg/track"
)

const (
	KindGenre = "genre"
	KindMeta  = "meta"

	audioExt = ".mp3"
)

// GenreWorker tags a converted track with each model, aggregates the tags
// into a genre and hands the track to the metadata stage.
type GenreWorker struct {
	Objects    storage.ObjectStore
	Tagger     tagger.Tagger
	Aggregator *genre.Aggregator
	Publisher  queue.Publisher
	MetaQueue  string
	// Tracks is optional; when set, failures are recorded on the track.
	Tracks  track.Store
	TempDir string
	TopN    int
	Models  []tagger.Model
}

func (w *GenreWorker) validate() error {
	switch {
	case w.Objects == nil:
		return errors.New("object store required")
	case w.Tagger == nil:
		return errors.New("tagger required")
	case w.Publisher == nil:
		return errors.New("publisher required")
	case w.MetaQueue == "":
		return errors.New("meta queue required")
	}
	return nil
}

// Process handles one genre queue message whose body is the track id.
func (w *GenreWorker) Process(ctx context.Context, m queue.Message) (err error) {
	defer func() { metrics.RecordWorkItem(KindGenre, err) }()

	if err := w.validate(); err != nil {
		return err
	}

	id, err := queue.ParseTrackID(m.Body)
	if err != nil {
		return err
	}

	g, err := w.genre(ctx, id)
	if err != nil {
		w.markFailed(ctx, id, err)
		return err
	}

	slog.Info("genre selected", "id", id, "genre", g)
	if err := queue.PublishJSON(ctx, w.Publisher, w.MetaQueue, queue.GenreMessage{ID: id, Genre: g}); err != nil {
		w.markFailed(ctx, id, err)
		return err
	}
	return nil
}

func (w *GenreWorker) genre(ctx context.Context, id string) (string, error) {
	file, err := tempAudio(w.TempDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(file)

	if err := w.Objects.Download(ctx, id+audioExt, file); err != nil {
		return "", fmt.Errorf("downloading %s: %w", id, err)
	}

	topN := w.TopN
	if topN <= 0 {
		topN = tagger.TopNDefault
	}

	lists, err := tagger.RunModels(ctx, w.Tagger, file, topN, w.Models)
	if err != nil {
		return "", err
	}

	a := w.Aggregator
	if a == nil {
		a = genre.NewAggregator()
	}

	r, err := a.Explain(lists)
	if err != nil {
		metrics.RecordAggregation(metrics.OutcomeError)
		return "", fmt.Errorf("aggregating tags for %s: %w", id, err)
	}

	if r.Whitelisted {
		metrics.RecordAggregation(metrics.OutcomeWhitelist)
	} else {
		metrics.RecordAggregation(metrics.OutcomeFallback)
	}
	slog.Debug("tags ranked", "id", id, "ranked", r.Ranked)
	return r.Genre, nil
}

// tempAudio creates an empty local file for a downloaded track.
func tempAudio(dir string) (string, error) {
	f, err := os.CreateTemp(dir, "genre-*"+audioExt)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return name, nil
}

func (w *GenreWorker) markFailed(ctx context.Context, id string, cause error) {
	if w.Tracks == nil {
		return
	}
	if err := w.Tracks.SetStatus(ctx, id, track.StatusFailed); err != nil {
		slog.Error("failed to record track failure", "id", id, "cause", cause, "error", err)
	}
}
