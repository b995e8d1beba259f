package modelfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"clive/internal/logging"
	"clive/internal/services"
)

const baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Quantized artifacts chosen to match whisper.cpp's published builds. The
// larger models ship q5_0 because the q8_0 variants are not published.
var modelArtifacts = map[string]string{
	"tiny":      "ggml-tiny-q8_0.bin",
	"tiny.en":   "ggml-tiny-en-q8_0.bin",
	"base":      "ggml-base-q8_0.bin",
	"base.en":   "ggml-base-en-q8_0.bin",
	"small":     "ggml-small-q8_0.bin",
	"small.en":  "ggml-small-en-q8_0.bin",
	"medium":    "ggml-medium-q5_0.bin",
	"medium.en": "ggml-medium-en-q5_0.bin",
	"large":     "ggml-large-v3-turbo-q8_0.bin",
}

// ModelURL returns the download URL for a named whisper model.
func ModelURL(model string) (string, error) {
	artifact, ok := modelArtifacts[strings.TrimSpace(model)]
	if !ok {
		return "", fmt.Errorf("unknown whisper model %q", model)
	}
	return baseURL + artifact + "?download=true", nil
}

// Fetcher downloads models with retry and backoff.
type Fetcher struct {
	client  *http.Client
	logger  *slog.Logger
	retries int
	backoff time.Duration
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRetryPolicy overrides the retry count and base backoff delay.
func WithRetryPolicy(retries int, backoff time.Duration) Option {
	return func(f *Fetcher) {
		if retries > 0 {
			f.retries = retries
		}
		if backoff > 0 {
			f.backoff = backoff
		}
	}
}

// NewFetcher builds a model fetcher.
func NewFetcher(logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		logger:  logging.NewComponentLogger(logger, "modelfetch"),
		retries: 3,
		backoff: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ensure downloads the named model to destination unless it is already
// present. Concurrent callers serialize on a sibling lock file; whichever
// caller wins the lock performs the download and the rest find the model in
// place.
func (f *Fetcher) Ensure(ctx context.Context, model, destination string) error {
	if fileReady(destination) {
		f.logger.DebugContext(ctx, "model already cached", logging.String("model", model))
		return nil
	}
	url, err := ModelURL(model)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch_model", "resolve url", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return services.Wrap(services.ErrCache, "fetch_model", "ensure model dir", "", err)
	}

	lock := flock.New(destination + ".lock")
	locked, err := lock.TryLockContext(ctx, 500*time.Millisecond)
	if err != nil {
		return services.Wrap(services.ErrAcquisition, "fetch_model", "acquire lock",
			"Could not acquire model download lock", err)
	}
	if !locked {
		return services.Wrap(services.ErrAcquisition, "fetch_model", "acquire lock",
			"Model download lock unavailable", nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	// Another run may have finished the download while this one waited.
	if fileReady(destination) {
		return nil
	}

	f.logger.InfoContext(ctx, "downloading whisper model",
		logging.String("model", model),
		logging.String("url", url))

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		if attempt > 1 {
			delay := f.backoff * time.Duration(1<<(attempt-2))
			f.logger.WarnContext(ctx, "retrying model download",
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.String(logging.FieldErrorHint, "Check network connectivity to huggingface.co"),
				logging.Error(lastErr))
			select {
			case <-ctx.Done():
				return services.Wrap(services.ErrAcquisition, "fetch_model", "download", "Download cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}
		lastErr = f.download(ctx, url, destination)
		if lastErr == nil {
			f.logger.InfoContext(ctx, "model downloaded", logging.String("model", model))
			return nil
		}
		if errors.Is(lastErr, context.Canceled) {
			break
		}
	}
	return services.Wrap(services.ErrAcquisition, "fetch_model", "download",
		fmt.Sprintf("Failed to download model %q", model), lastErr)
}

func (f *Fetcher) download(ctx context.Context, url, destination string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".clive-model-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), destination)
}

func fileReady(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
