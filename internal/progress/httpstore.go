package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds a single store round trip.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPStore is a CheckpointStore backed by the checkpoint REST service.
// The service derives the viewer from the bearer token, so the viewerID
// arguments are ignored.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPStoreOption customizes an HTTPStore.
type HTTPStoreOption func(*HTTPStore)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPStoreOption {
	return func(s *HTTPStore) {
		s.client = client
	}
}

// NewHTTPStore creates a store talking to the service at baseURL,
// authenticating with the given bearer token.
func NewHTTPStore(baseURL, token string, opts ...HTTPStoreOption) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type checkpointPayload struct {
	ContentID    string   `json:"content_id"`
	PlaybackTime float64  `json:"playback_time"`
	Duration     *float64 `json:"duration"`
	Completed    bool     `json:"completed"`
}

type checkpointEnvelope struct {
	Checkpoint *checkpointPayload `json:"checkpoint"`
}

type savePayload struct {
	PlaybackTime float64 `json:"playback_time"`
	Duration     float64 `json:"duration"`
}

// Fetch implements CheckpointStore.
func (s *HTTPStore) Fetch(ctx context.Context, viewerID, contentID string) (*Checkpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.checkpointURL(contentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoint: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("checkpoint fetch returned status %d", resp.StatusCode)
	}

	var envelope checkpointEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if envelope.Checkpoint == nil {
		return nil, ErrNotFound
	}

	cp := &Checkpoint{
		ContentID:    envelope.Checkpoint.ContentID,
		PlaybackTime: envelope.Checkpoint.PlaybackTime,
		Completed:    envelope.Checkpoint.Completed,
	}
	if envelope.Checkpoint.Duration != nil {
		cp.Duration = *envelope.Checkpoint.Duration
	}
	return cp, nil
}

// Upsert implements CheckpointStore.
func (s *HTTPStore) Upsert(ctx context.Context, viewerID string, checkpoint *Checkpoint) error {
	body, err := json.Marshal(savePayload{
		PlaybackTime: checkpoint.PlaybackTime,
		Duration:     checkpoint.Duration,
	})
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.checkpointURL(checkpoint.ContentID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkpoint save returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) checkpointURL(contentID string) string {
	return s.baseURL + "/api/v1/viewers/me/checkpoints/" + url.PathEscape(contentID)
}

func (s *HTTPStore) setHeaders(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("Accept", "application/json")
}
