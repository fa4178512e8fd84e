package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/genrelay/pkg/auth"
	"github.com/mchmarny/genrelay/pkg/catalog"
	"github.com/mchmarny/genrelay/pkg/cloud"
	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/meta"
	"github.com/mchmarny/genrelay/pkg/queue"
	"github.com/mchmarny/genrelay/pkg/storage"
	"github.com/mchmarny/genrelay/pkg/tagger"
	"github.com/mchmarny/genrelay/pkg/track"
	"github.com/mchmarny/genrelay/pkg/worker"
)

func (a *appConfig) openTracks(ctx context.Context) (track.Store, error) {
	return track.Open(ctx, a.Config.Store, func(ctx context.Context) (track.DynamoAPI, error) {
		cfg, err := cloud.LoadAWS(ctx, a.Config.AWS)
		if err != nil {
			return nil, err
		}
		return track.NewDynamoClient(cfg), nil
	})
}

func (a *appConfig) openObjects(ctx context.Context) (storage.ObjectStore, error) {
	return storage.Open(ctx, a.Config.Storage, func(ctx context.Context) (storage.S3API, error) {
		cfg, err := cloud.LoadAWS(ctx, a.Config.AWS)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Client(cfg), nil
	})
}

func (a *appConfig) sqsClient(ctx context.Context) (queue.SQSAPI, error) {
	if err := a.Config.ValidateQueues(); err != nil {
		return nil, err
	}
	cfg, err := cloud.LoadAWS(ctx, a.Config.AWS)
	if err != nil {
		return nil, err
	}
	return queue.NewSQSClient(cfg), nil
}

// catalogClient resolves the client secret from the keychain when it is not
// set in the environment.
func (a *appConfig) catalogClient(ctx context.Context) (*catalog.Client, error) {
	c := a.Config.Catalog
	if c.BaseURL == "" {
		return nil, nil
	}
	if c.TokenURL != "" && c.ClientID != "" && c.ClientSecret == "" {
		secret, err := auth.NewSecretStore(a.Dir).Get(c.ClientID)
		if err != nil {
			slog.Warn("catalog secret not found, run auth first", "error", err)
		}
		c.ClientSecret = secret
	}
	return catalog.NewClientFromConfig(ctx, c)
}

func (a *appConfig) tagger() *tagger.ExecTagger {
	t := a.Config.Tagger
	return tagger.NewExecTagger(t.Command, t.Args, t.Timeout)
}

// processor builds the ProcessFunc and queue URL for a worker kind. The
// returned closer releases the track store.
func (a *appConfig) processor(ctx context.Context, kind string) (worker.ProcessFunc, string, func(), error) {
	api, err := a.sqsClient(ctx)
	if err != nil {
		return nil, "", nil, err
	}

	objects, err := a.openObjects(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening object store: %w", err)
	}

	tracks, err := a.openTracks(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening track store: %w", err)
	}
	closer := func() {
		if err := tracks.Close(); err != nil {
			slog.Error("closing track store", "error", err)
		}
	}

	switch kind {
	case worker.KindGenre:
		models, err := tagger.ParseModels(a.Config.Tagger.Models)
		if err != nil {
			closer()
			return nil, "", nil, err
		}
		w := &worker.GenreWorker{
			Objects:    objects,
			Tagger:     a.tagger(),
			Aggregator: genre.NewAggregator(),
			Publisher:  queue.NewSQSPublisher(api),
			MetaQueue:  a.Config.QueueURL(a.Config.Queues.Meta),
			Tracks:     tracks,
			TempDir:    a.Config.Tagger.TempDir,
			TopN:       a.Config.Tagger.TopN,
			Models:     models,
		}
		return w.Process, a.Config.QueueURL(a.Config.Queues.Genre), closer, nil
	case worker.KindMeta:
		s := &meta.Service{
			Objects: objects,
			Tracks:  tracks,
			TempDir: a.Config.Tagger.TempDir,
		}
		cat, err := a.catalogClient(ctx)
		if err != nil {
			closer()
			return nil, "", nil, err
		}
		if cat != nil {
			s.Catalog = cat
		}
		return s.Process, a.Config.QueueURL(a.Config.Queues.Meta), closer, nil
	default:
		closer()
		return nil, "", nil, fmt.Errorf("unknown worker: %q (expected %s or %s)", kind, worker.KindGenre, worker.KindMeta)
	}
}
