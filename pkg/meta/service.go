// Package meta writes the final ID3 metadata onto a tagged track and
// publishes it under its display file name.
package meta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bogem/id3v2"
	"github.com/mchmarny/genrelay/pkg/catalog"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"github.com/mchmarny/genrelay/pkg/net"
	"github.com/mchmarny/genrelay/pkg/queue"
	"github.com/mchmarny/genrelay/pkg/storage"
	"github.com/mchmarny/genrelay/pkg/track"
)

const (
	kind         = "meta"
	audioExt     = ".mp3"
	coverLimit   = 10 << 20
	coverCaption = "Front cover"
)

// SongGetter looks up catalog metadata for a track id.
type SongGetter interface {
	GetSong(ctx context.Context, id string) (*catalog.SongMeta, error)
}

// FetchFunc downloads at most limit bytes from url.
type FetchFunc func(ctx context.Context, url string, limit int64) ([]byte, error)

type Service struct {
	Objects storage.ObjectStore
	Tracks  track.Store
	// Catalog fills missing title, artist and cover art. Optional.
	Catalog SongGetter
	Fetch   FetchFunc
	TempDir string
}

// Process handles one meta queue message.
func (s *Service) Process(ctx context.Context, m queue.Message) (err error) {
	defer func() { metrics.RecordWorkItem(kind, err) }()

	if s.Objects == nil || s.Tracks == nil {
		return errors.New("object store and track store required")
	}

	gm, err := queue.ParseGenreMessage(m.Body)
	if err != nil {
		return err
	}

	if err := s.tag(ctx, gm); err != nil {
		if serr := s.Tracks.SetStatus(ctx, gm.ID, track.StatusFailed); serr != nil {
			slog.Error("failed to record track failure", "id", gm.ID, "error", serr)
		}
		return err
	}
	return nil
}

func (s *Service) tag(ctx context.Context, gm *queue.GenreMessage) error {
	f, err := os.CreateTemp(s.TempDir, "meta-*"+audioExt)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	file := f.Name()
	defer os.Remove(file)
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := s.Objects.Download(ctx, gm.ID+audioExt, file); err != nil {
		return fmt.Errorf("downloading %s: %w", gm.ID, err)
	}

	t, err := s.loadTrack(ctx, gm.ID)
	if err != nil {
		return err
	}
	t.Genre = gm.Genre

	if err := s.fillFromCatalog(ctx, t); err != nil {
		return err
	}

	var cover []byte
	if t.CoverArtURL != "" {
		if cover, err = s.fetch(ctx, t.CoverArtURL); err != nil {
			return fmt.Errorf("fetching cover art for %s: %w", t.ID, err)
		}
	}

	if err := WriteTags(file, t, cover); err != nil {
		return err
	}

	name := SanitizeFilename(fmt.Sprintf("%s - %s%s", t.Artist, t.Title, audioExt))
	if err := s.Objects.Upload(ctx, file, name); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}

	t.Status = track.StatusComplete
	t.URL = name
	if err := s.Tracks.Put(ctx, t); err != nil {
		return err
	}

	slog.Info("track complete", "id", t.ID, "file", name, "genre", t.Genre)
	return nil
}

func (s *Service) loadTrack(ctx context.Context, id string) (*track.Track, error) {
	t, err := s.Tracks.Get(ctx, id)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, track.ErrNotFound) {
		return &track.Track{ID: id}, nil
	}
	return nil, err
}

func (s *Service) fillFromCatalog(ctx context.Context, t *track.Track) error {
	if s.Catalog == nil || (t.Title != "" && t.Artist != "" && t.CoverArtURL != "") {
		return nil
	}

	sm, err := s.Catalog.GetSong(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("catalog lookup for %s: %w", t.ID, err)
	}
	if t.Title == "" {
		t.Title = sm.Title
	}
	if t.Artist == "" {
		t.Artist = sm.Author
	}
	if t.CoverArtURL == "" {
		t.CoverArtURL = sm.Image
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	f := s.Fetch
	if f == nil {
		f = net.Fetch
	}
	return f(ctx, url, coverLimit)
}

// WriteTags sets the title, artist, album and genre frames of the mp3 at
// path and attaches cover as the front cover when present.
func WriteTags(path string, t *track.Track, cover []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("reading tags from %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(t.Title)
	tag.SetArtist(t.Artist)
	tag.SetAlbum(t.Album)
	tag.SetGenre(t.Genre)

	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    http.DetectContentType(cover),
			PictureType: id3v2.PTFrontCover,
			Description: coverCaption,
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving tags to %s: %w", path, err)
	}
	return nil
}
