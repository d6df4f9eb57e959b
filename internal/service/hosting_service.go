package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

// Uploader pushes a media file to a public host and returns a URL the
// platform can fetch.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type freeimageUploader struct {
	apiKey string
	url    string
	client *resty.Client
}

func NewFreeimageUploader(cfg config.Freeimage) Uploader {
	return &freeimageUploader{
		apiKey: cfg.APIKey,
		url:    cfg.UploadURL,
		client: resty.New().SetTimeout(60 * time.Second),
	}
}

func (u *freeimageUploader) Name() string {
	return "freeimage.host"
}

func (u *freeimageUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var result transfer.FreeimageResponse

	resp, err := u.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":    u.apiKey,
			"action": "upload",
			"format": "json",
		}).
		SetFileReader("source", filename, bytes.NewReader(data)).
		SetResult(&result).
		SetError(&result).
		Post(u.url)
	if err != nil {
		return "", fmt.Errorf("freeimage.host request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK || result.StatusCode != http.StatusOK || result.Image.URL == "" {
		msg := result.Error.Message
		if msg == "" {
			msg = truncateRunes(resp.String(), 300)
		}
		slog.Error("freeimage.host upload rejected", "status", resp.StatusCode(), "message", msg)
		return "", fmt.Errorf("freeimage.host upload failed (status %d): %s", resp.StatusCode(), msg)
	}

	return result.Image.URL, nil
}

// NewUploader picks the configured hosting fallback. freeimage.host wins
// over R2 when both are set. A nil Uploader means none is configured.
func NewUploader(ctx context.Context, cfg *config.Config) (Uploader, error) {
	if cfg.Freeimage.APIKey != "" {
		return NewFreeimageUploader(cfg.Freeimage), nil
	}
	if cfg.R2.Enabled() {
		r2, err := NewR2Service(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		return r2, nil
	}
	return nil, nil
}

var errNoUploader = errors.New("no media hosting fallback is configured (set FREEIMAGE_HOST_API_KEY or the R2_* variables)")
