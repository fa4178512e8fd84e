// Package catalog relays song and playlist metadata from the music catalog
// service in the shapes the download pipeline consumes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mchmarny/genrelay/pkg/config"
	"github.com/mchmarny/genrelay/pkg/net"
)

// ErrNotFound is returned when the catalog has no entry for the id.
var ErrNotFound = errors.New("catalog entry not found")

// Client reads from the catalog service.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for base using httpClient, or the default
// retrying client when nil.
func NewClient(base string, httpClient *http.Client) (*Client, error) {
	if base == "" {
		return nil, errors.New("catalog base URL required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if httpClient == nil {
		var err error
		if httpClient, err = net.GetHTTPClient(); err != nil {
			return nil, err
		}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}, nil
}

// NewClientFromConfig authenticates with client credentials when a token URL
// and client id are configured.
func NewClientFromConfig(ctx context.Context, c config.Catalog) (*Client, error) {
	var hc *http.Client
	if c.TokenURL != "" && c.ClientID != "" {
		hc = net.GetClientCredentialsClient(ctx, c.TokenURL, c.ClientID, c.ClientSecret)
	}
	return NewClient(c.BaseURL, hc)
}

func (c *Client) endpoint(kind, id string) string {
	return fmt.Sprintf("%s/%s/%s", c.base, kind, url.PathEscape(id))
}

// GetSong returns the metadata for the song id.
func (c *Client) GetSong(ctx context.Context, id string) (*SongMeta, error) {
	if id == "" {
		return nil, errors.New("song id required")
	}

	var r songResponse
	if err := net.GetJSON(ctx, c.http, c.endpoint("songs", id), &r); err != nil {
		return nil, c.wrap(id, err)
	}
	return toSongMeta(&r.VideoDetails), nil
}

// GetPlaylist returns the track ids of the playlist id in order.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	if id == "" {
		return nil, errors.New("playlist id required")
	}

	var r playlistResponse
	if err := net.GetJSON(ctx, c.http, c.endpoint("playlists", id), &r); err != nil {
		return nil, c.wrap(id, err)
	}

	p := &Playlist{Tracks: make([]PlaylistTrack, 0, len(r.Tracks))}
	for _, t := range r.Tracks {
		if t.VideoID == "" {
			continue
		}
		p.Tracks = append(p.Tracks, PlaylistTrack{ID: t.VideoID})
	}
	return p, nil
}

func (c *Client) wrap(id string, err error) error {
	if errors.Is(err, net.ErrorURLNotFound) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("catalog request for %s: %w", id, err)
}

func toSongMeta(d *videoDetails) *SongMeta {
	m := &SongMeta{
		Title:  d.Title,
		Author: d.Author,
		Type:   TypeOMV,
	}
	if n := len(d.Thumbnail.Thumbnails); n > 0 {
		m.Image = d.Thumbnail.Thumbnails[n-1].URL
	}
	if strings.Contains(strings.ToLower(d.MusicVideoType), TypeATV) {
		m.Type = TypeATV
	}
	return m
}
