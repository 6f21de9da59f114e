package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// addResult is the response of the IPFS add endpoint.
type addResult struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// HTTPStore uploads content to an IPFS node's add endpoint.
type HTTPStore struct {
	addURL string
	client *http.Client

	maxRetries uint64
	backoff    time.Duration
}

// NewHTTPStore returns a store posting to addURL (the node's /api/v0/add).
func NewHTTPStore(addURL string) *HTTPStore {
	return &HTTPStore{
		addURL:     addURL,
		client:     &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// PutBytes posts data as a multipart upload and returns the reported content
// hash. Transient failures (network errors, 5xx) are retried with
// exponential backoff; the upload is idempotent by content so repeats are
// harmless.
func (s *HTTPStore) PutBytes(ctx context.Context, data []byte) (string, error) {
	var hash string

	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		h, err := s.putOnce(ctx, data)
		if err != nil {
			return err
		}
		hash = h
		return nil
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (s *HTTPStore) putOnce(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.addURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", retry.RetryableError(fmt.Errorf("upload failed: %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}

	var result addResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode add response: %w", err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("add response missing hash")
	}
	return result.Hash, nil
}
