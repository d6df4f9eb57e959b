package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type ChannelService interface {
	List(ctx context.Context) ([]*models.Channel, error)
	Connect(ctx context.Context, req transfer.ConnectRequest) (*models.Channel, error)
}

type channelService struct {
	cr    repository.ChannelRepository
	creds CredentialService
}

func NewChannelService(cr repository.ChannelRepository, creds CredentialService) ChannelService {
	return &channelService{cr: cr, creds: creds}
}

// List returns every channel. When none exist yet and the environment carries
// Instagram credentials, the default channel is created first.
func (s *channelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.cr.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(channels) > 0 {
		return channels, nil
	}

	ch, err := s.creds.SyncFromEnv(ctx, models.PlatformInstagram)
	if err != nil {
		slog.Warn("failed to create default channel from env", "err", err)
		return channels, nil
	}
	if ch == nil {
		return channels, nil
	}
	return s.cr.List(ctx)
}

// Connect stores credentials on the channel named req.Name, creating it when missing.
func (s *channelService) Connect(ctx context.Context, req transfer.ConnectRequest) (*models.Channel, error) {
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if platform == "" {
		platform = models.PlatformInstagram
	}
	if platform != models.PlatformInstagram {
		return nil, validationf("unsupported platform %q", req.Platform)
	}

	userID := strings.TrimSpace(req.UserID)
	token := strings.Trim(strings.TrimSpace(req.AccessToken), `"'`)
	if userID == "" || token == "" {
		return nil, validationf("user_id and access_token are required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultChannelName
	}

	ch, err := s.cr.GetByPlatformAndName(ctx, platform, name)
	if err != nil {
		return nil, err
	}

	if ch == nil {
		id, err := s.cr.Create(ctx, &models.Channel{Platform: platform, Name: name, IsActive: true})
		if err != nil {
			return nil, fmt.Errorf("failed to create channel: %w", err)
		}
		ch = &models.Channel{ID: id}
	}

	if err := s.creds.Store(ctx, ch.ID, userID, token, nil); err != nil {
		return nil, fmt.Errorf("failed to store channel credentials: %w", err)
	}

	slog.Info("channel connected", "platform", platform, "channel_id", ch.ID, "name", name)
	return s.cr.GetByID(ctx, ch.ID)
}
