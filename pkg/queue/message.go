// Package queue carries track work between pipeline stages over SQS.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidID is returned for track ids that cannot name an object or file.
var ErrInvalidID = errors.New("invalid track id")

// Message is a received queue message, from polling or a Lambda event.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string
}

// GenreMessage is published by the genre stage for the metadata stage.
type GenreMessage struct {
	ID    string `json:"id"`
	Genre string `json:"genre"`
}

// Publisher sends a message body to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue, body string) error
}

// PublishJSON encodes v and publishes it to queue.
func PublishJSON(ctx context.Context, p Publisher, queue string, v any) error {
	if p == nil {
		return errors.New("publisher required")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	return p.Publish(ctx, queue, string(b))
}

// ParseGenreMessage decodes a metadata stage message.
func ParseGenreMessage(body string) (*GenreMessage, error) {
	var m GenreMessage
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return nil, fmt.Errorf("decoding genre message: %w", err)
	}
	if m.ID == "" {
		return nil, errors.New("genre message missing id")
	}
	if err := validID(m.ID); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseTrackID returns the track id carried by a genre stage message body.
func ParseTrackID(body string) (string, error) {
	id := strings.TrimSpace(body)
	if id == "" {
		return "", errors.New("empty track id")
	}
	if err := validID(id); err != nil {
		return "", err
	}
	return id, nil
}

// validID rejects ids that would escape a directory when used in a path.
func validID(id string) error {
	if strings.ContainsAny(id, "/\\\x00") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
