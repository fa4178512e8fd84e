package meta

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/mchmarny/genrelay/pkg/catalog"
	"github.com/mchmarny/genrelay/pkg/queue"
	"github.com/mchmarny/genrelay/pkg/storage"
	"github.com/mchmarny/genrelay/pkg/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal PNG header, enough for content sniffing
var pngCover = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeCatalog struct {
	song  *catalog.SongMeta
	err   error
	calls int
}

func (f *fakeCatalog) GetSong(_ context.Context, _ string) (*catalog.SongMeta, error) {
	f.calls++
	return f.song, f.err
}

func setup(t *testing.T) (*Service, *storage.FileStore, *track.SQLStore) {
	t.Helper()
	ctx := context.Background()

	objects, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "src.mp3")
	require.NoError(t, os.WriteFile(src, []byte("not really audio"), 0o600))
	require.NoError(t, objects.Upload(ctx, src, "abc.mp3"))

	tracks, err := track.NewSQLStore(ctx, track.DriverSQLite, filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tracks.Close() })

	return &Service{
		Objects: objects,
		Tracks:  tracks,
		TempDir: t.TempDir(),
		Fetch: func(_ context.Context, url string, _ int64) ([]byte, error) {
			if url == "https://img/missing.jpg" {
				return nil, errors.New("not found")
			}
			return pngCover, nil
		},
	}, objects, tracks
}

func readTag(t *testing.T, objects storage.ObjectStore, key string) *id3v2.Tag {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "out.mp3")
	require.NoError(t, objects.Download(context.Background(), key, dst))
	tag, err := id3v2.Open(dst, id3v2.Options{Parse: true})
	require.NoError(t, err)
	t.Cleanup(func() { tag.Close() })
	return tag
}

func TestProcess_StoredMetadata(t *testing.T) {
	s, objects, tracks := setup(t)
	ctx := context.Background()
	require.NoError(t, tracks.Put(ctx, &track.Track{
		ID:          "abc",
		Status:      track.StatusProcessing,
		Title:       "Song: Part 1",
		Artist:      "Band",
		Album:       "Record",
		CoverArtURL: "https://img/large.png",
	}))

	err := s.Process(ctx, queue.Message{Body: `{"id":"abc","genre":"Rock"}`})
	require.NoError(t, err)

	got, err := tracks.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, track.StatusComplete, got.Status)
	assert.Equal(t, "Band - Song_ Part 1.mp3", got.URL)
	assert.Equal(t, "Rock", got.Genre)

	tag := readTag(t, objects, got.URL)
	assert.Equal(t, "Song: Part 1", tag.Title())
	assert.Equal(t, "Band", tag.Artist())
	assert.Equal(t, "Record", tag.Album())
	assert.Equal(t, "Rock", tag.Genre())

	pics := tag.GetFrames(tag.CommonID("Attached picture"))
	require.Len(t, pics, 1)
	pic, ok := pics[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, "image/png", pic.MimeType)
	assert.Equal(t, byte(id3v2.PTFrontCover), pic.PictureType)
}

func TestProcess_FillsFromCatalog(t *testing.T) {
	s, objects, tracks := setup(t)
	cat := &fakeCatalog{song: &catalog.SongMeta{Title: "Song", Author: "Band", Image: "https://img/x.png"}}
	s.Catalog = cat

	err := s.Process(context.Background(), queue.Message{Body: `{"id":"abc","genre":"Hip-Hop"}`})
	require.NoError(t, err)
	assert.Equal(t, 1, cat.calls)

	got, err := tracks.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Song", got.Title)
	assert.Equal(t, "https://img/x.png", got.CoverArtURL)

	tag := readTag(t, objects, "Band - Song.mp3")
	assert.Equal(t, "Hip-Hop", tag.Genre())
}

func TestProcess_FailuresMarkTrack(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		before func(s *Service, tracks *track.SQLStore)
	}{
		{
			name: "missing audio",
			body: `{"id":"zzz","genre":"Rock"}`,
		},
		{
			name: "catalog error",
			body: `{"id":"abc","genre":"Rock"}`,
			before: func(s *Service, _ *track.SQLStore) {
				s.Catalog = &fakeCatalog{err: catalog.ErrNotFound}
			},
		},
		{
			name: "cover art error",
			body: `{"id":"abc","genre":"Rock"}`,
			before: func(_ *Service, tracks *track.SQLStore) {
				_ = tracks.Put(context.Background(), &track.Track{
					ID: "abc", Status: track.StatusProcessing, Title: "T", Artist: "A",
					CoverArtURL: "https://img/missing.jpg",
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, tracks := setup(t)
			if tt.before != nil {
				tt.before(s, tracks)
			}
			gm, err := queue.ParseGenreMessage(tt.body)
			require.NoError(t, err)

			require.Error(t, s.Process(context.Background(), queue.Message{Body: tt.body}))

			got, err := tracks.Get(context.Background(), gm.ID)
			require.NoError(t, err)
			assert.Equal(t, track.StatusFailed, got.Status)
		})
	}
}

func TestProcess_PathID(t *testing.T) {
	s, _, tracks := setup(t)

	root := t.TempDir()
	s.TempDir = filepath.Join(root, "tmp")
	require.NoError(t, os.Mkdir(s.TempDir, 0o700))
	other := filepath.Join(root, "other")
	require.NoError(t, os.Mkdir(other, 0o700))
	victim := filepath.Join(other, "victim.mp3")
	require.NoError(t, os.WriteFile(victim, []byte("keep"), 0o600))

	err := s.Process(context.Background(), queue.Message{Body: `{"id":"../other/victim","genre":"Rock"}`})
	require.ErrorIs(t, err, queue.ErrInvalidID)

	b, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(b))

	_, err = tracks.Get(context.Background(), "../other/victim")
	assert.ErrorIs(t, err, track.ErrNotFound)
}

func TestProcess_RemovesTempFile(t *testing.T) {
	s, _, _ := setup(t)
	_ = s.Tracks.Put(context.Background(), &track.Track{ID: "abc", Status: track.StatusProcessing, Title: "T", Artist: "A"})

	require.NoError(t, s.Process(context.Background(), queue.Message{Body: `{"id":"abc","genre":"Rock"}`}))

	entries, err := os.ReadDir(s.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcess_BadMessage(t *testing.T) {
	s, _, _ := setup(t)
	assert.Error(t, s.Process(context.Background(), queue.Message{Body: "abc"}))
	assert.Error(t, (&Service{}).Process(context.Background(), queue.Message{Body: `{"id":"a"}`}))
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		`AC/DC - Back In Black.mp3`:   `AC_DC - Back In Black.mp3`,
		`What? - Why*Not".mp3`:        `What_ - Why_Not_.mp3`,
		"  .Band - Song.mp3. ":        "Band - Song.mp3",
		"a\tb<c>d|e\\f:g":             "a_b_c_d_e_f_g",
		"Plain Artist - Plain Title": "Plain Artist - Plain Title",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}
