package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mchmarny/genrelay/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "src.mp3")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func testObjectStore(t *testing.T, s ObjectStore) {
	ctx := context.Background()
	src := writeTemp(t, "ID3 audio")

	ok, err := s.Exists(ctx, "abc.mp3")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Download(ctx, "abc.mp3", filepath.Join(t.TempDir(), "x.mp3"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Upload(ctx, src, "abc.mp3"))

	ok, err = s.Exists(ctx, "abc.mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	dst := filepath.Join(t.TempDir(), "out.mp3")
	require.NoError(t, s.Download(ctx, "abc.mp3", dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ID3 audio", string(b))

	require.NoError(t, s.Delete(ctx, "abc.mp3"))
	ok, err = s.Exists(ctx, "abc.mp3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Store(t *testing.T) {
	testObjectStore(t, NewS3Store(newFakeS3(), "bucket"))
}

func TestS3Store_Errors(t *testing.T) {
	f := newFakeS3()
	f.err = errors.New("access denied")
	s := NewS3Store(f, "bucket")
	ctx := context.Background()

	_, err := s.Exists(ctx, "abc.mp3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "s3://bucket/abc.mp3")

	err = s.Upload(ctx, writeTemp(t, "x"), "abc.mp3")
	assert.Error(t, err)

	err = s.Upload(ctx, filepath.Join(t.TempDir(), "missing"), "abc.mp3")
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)
	testObjectStore(t, s)

	err = s.Delete(context.Background(), "missing.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Exists(context.Background(), "../escape.mp3")
	assert.Error(t, err)

	_, err = NewFileStore("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Storage{Driver: config.StorageFile, Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	fake := newFakeS3()
	s, err = Open(ctx, config.Storage{Driver: config.StorageS3, Bucket: "b"}, func(context.Context) (S3API, error) {
		return fake, nil
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = Open(ctx, config.Storage{Driver: config.StorageS3}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, config.Storage{Driver: config.StorageS3, Bucket: "b"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, config.Storage{Driver: "gcs"}, nil)
	assert.Error(t, err)
}
