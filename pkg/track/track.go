// Package track persists per-track pipeline state: status, metadata and the
// final download URL.
package track

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	StatusQueued      = "queued"
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusComplete    = "complete"
	StatusFailed      = "failed"
)

var (
	// ErrNotFound is returned when no record exists for the track id.
	ErrNotFound = errors.New("track not found")

	errStoreNotInitialized = errors.New("track store not initialized")

	statuses = map[string]bool{
		StatusQueued:      true,
		StatusDownloading: true,
		StatusProcessing:  true,
		StatusComplete:    true,
		StatusFailed:      true,
	}
)

// Track is a single pipeline record keyed by the catalog id.
type Track struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Status      string    `json:"status" dynamodbav:"status"`
	URL         string    `json:"url,omitempty" dynamodbav:"url"`
	Title       string    `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Artist      string    `json:"artist,omitempty" dynamodbav:"artist,omitempty"`
	Album       string    `json:"album,omitempty" dynamodbav:"album,omitempty"`
	Genre       string    `json:"genre,omitempty" dynamodbav:"genre,omitempty"`
	CoverArtURL string    `json:"cover_art_url,omitempty" dynamodbav:"cover_art_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at,unixtime"`
}

// Store reads and writes track records.
type Store interface {
	Get(ctx context.Context, id string) (*Track, error)
	// Put creates or replaces the whole record.
	Put(ctx context.Context, t *Track) error
	// SetStatus changes only the status, creating the record when missing.
	SetStatus(ctx context.Context, id, status string) error
	Close() error
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	return statuses[s]
}

func validate(t *Track) error {
	if t == nil {
		return errors.New("track required")
	}
	if t.ID == "" {
		return errors.New("track id required")
	}
	if !ValidStatus(t.Status) {
		return errors.Errorf("invalid track status: %q", t.Status)
	}
	return nil
}

func validateStatus(id, status string) error {
	if id == "" {
		return errors.New("track id required")
	}
	if !ValidStatus(status) {
		return errors.Errorf("invalid track status: %q", status)
	}
	return nil
}
