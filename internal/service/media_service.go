package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/models"
)

// MediaService turns an asset into a URL the platform can download.
type MediaService interface {
	ResolveURL(ctx context.Context, asset *models.MediaAsset) (string, error)
}

type mediaService struct {
	publicBase string
	mediaRoot  string
	uploader   Uploader
}

// NewMediaService takes a nil uploader when no hosting fallback is configured.
func NewMediaService(cfg *config.Config, uploader Uploader) MediaService {
	return &mediaService{
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		mediaRoot:  cfg.MediaRoot,
		uploader:   uploader,
	}
}

func (s *mediaService) ResolveURL(ctx context.Context, asset *models.MediaAsset) (string, error) {
	if asset == nil || strings.TrimSpace(asset.FilePath) == "" {
		return "", validationf("media asset has no file path")
	}

	candidate := asset.FilePath
	if !asset.IsRemote() {
		base := s.publicBase
		if base == "" {
			base = config.DefaultPublicBaseURL
		}
		candidate = base + "/" + trimLeadingSlashes(asset.FilePath)
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", validationf("media asset %d has an invalid location %q", asset.ID, asset.FilePath)
	}
	if !isLoopback(u.Hostname()) {
		return candidate, nil
	}

	// Loopback URLs are unreachable for the platform. Rewrite onto a public
	// base when there is one, otherwise push the file to the hosting fallback.
	if s.publicBase != "" && !isLoopbackURL(s.publicBase) {
		rewritten := s.publicBase + "/" + trimLeadingSlashes(u.RequestURI())
		slog.Info("rewrote loopback media url", "asset_id", asset.ID, "from", candidate, "to", rewritten)
		return rewritten, nil
	}

	return s.upload(ctx, asset, trimLeadingSlashes(u.Path))
}

func (s *mediaService) upload(ctx context.Context, asset *models.MediaAsset, rel string) (string, error) {
	if s.uploader == nil {
		return "", newError(KindConfiguration, "resolve media", errNoUploader)
	}

	local := filepath.Join(s.mediaRoot, filepath.FromSlash(rel))
	data, err := os.ReadFile(local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", validationf("media file %s not found", local)
		}
		return "", fmt.Errorf("failed to read media file %s: %w", local, err)
	}

	publicURL, err := s.uploader.Upload(ctx, filepath.Base(local), data)
	if err != nil {
		return "", newError(KindNetwork, "upload media to "+s.uploader.Name(), err)
	}

	slog.Info("uploaded media to hosting fallback", "asset_id", asset.ID, "host", s.uploader.Name(), "url", publicURL)
	return publicURL, nil
}

func trimLeadingSlashes(p string) string {
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	return isLoopback(u.Hostname())
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}
