package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/pkg/utils"
)

// DefaultChannelName names the channel created when credentials only exist in
// the environment.
const DefaultChannelName = "Default Account"

type Credentials struct {
	ChannelID   int64
	AccountID   string
	AccessToken string
	ExpiresAt   *time.Time
	FromEnv     bool
}

type CredentialService interface {
	Resolve(ctx context.Context, platform string) (*Credentials, error)
	SyncFromEnv(ctx context.Context, platform string) (*models.Channel, error)
	Store(ctx context.Context, channelID int64, userID, accessToken string, expiresAt *time.Time) error
}

type credentialService struct {
	cfg *config.Config
	cr  repository.ChannelRepository
}

func NewCredentialService(cfg *config.Config, cr repository.ChannelRepository) CredentialService {
	return &credentialService{cfg: cfg, cr: cr}
}

// Resolve prefers the environment pair and copies it onto the canonical
// channel. Without it the canonical channel's stored credentials are used.
func (s *credentialService) Resolve(ctx context.Context, platform string) (*Credentials, error) {
	if userID, token, ok := s.cfg.EnvCredentials(platform); ok {
		creds := &Credentials{AccountID: userID, AccessToken: token, FromEnv: true}

		ch, err := s.SyncFromEnv(ctx, platform)
		if err != nil {
			slog.Warn("failed to sync env credentials into channel, using env values", "platform", platform, "err", err)
		} else if ch != nil {
			creds.ChannelID = ch.ID
		}
		return creds, nil
	}

	ch, err := s.cr.GetCanonical(ctx, platform)
	if err != nil {
		return nil, err
	}
	if ch == nil || ch.Credentials.Empty() {
		return nil, configurationf("%s credentials are not configured: set INSTAGRAM_USER_ID and INSTAGRAM_ACCESS_TOKEN or connect a channel", platform)
	}

	token, err := s.open(ch.Credentials)
	if err != nil {
		return nil, newError(KindConfiguration, "decrypt channel token", err)
	}

	return &Credentials{
		ChannelID:   ch.ID,
		AccountID:   ch.Credentials.UserID,
		AccessToken: token,
		ExpiresAt:   ch.Credentials.ExpiresAt,
	}, nil
}

// SyncFromEnv writes the environment credentials onto the canonical channel,
// creating it when missing. It returns nil when no env pair is configured.
func (s *credentialService) SyncFromEnv(ctx context.Context, platform string) (*models.Channel, error) {
	userID, token, ok := s.cfg.EnvCredentials(platform)
	if !ok {
		return nil, nil
	}

	ch, err := s.cr.GetCanonical(ctx, platform)
	if err != nil {
		return nil, err
	}

	if ch == nil {
		sealed, err := s.seal(userID, token, nil)
		if err != nil {
			return nil, err
		}
		ch = &models.Channel{
			Platform:    platform,
			Name:        DefaultChannelName,
			Credentials: sealed,
			IsActive:    true,
		}
		id, err := s.cr.Create(ctx, ch)
		if err != nil {
			return nil, err
		}
		ch.ID = id
		slog.Info("created default channel from env credentials", "platform", platform, "channel_id", id)
		return ch, nil
	}

	if current, err := s.open(ch.Credentials); err == nil && current == token && ch.Credentials.UserID == userID {
		return ch, nil
	}

	if err := s.Store(ctx, ch.ID, userID, token, nil); err != nil {
		return nil, err
	}
	slog.Info("synced env credentials into channel", "platform", platform, "channel_id", ch.ID)
	return ch, nil
}

// Store seals and overwrites a channel's credentials. Last write wins.
func (s *credentialService) Store(ctx context.Context, channelID int64, userID, accessToken string, expiresAt *time.Time) error {
	sealed, err := s.seal(userID, accessToken, expiresAt)
	if err != nil {
		return err
	}
	return s.cr.SetCredentials(ctx, channelID, sealed)
}

func (s *credentialService) seal(userID, token string, expiresAt *time.Time) (models.ChannelCredentials, error) {
	creds := models.ChannelCredentials{UserID: userID, AccessToken: token, ExpiresAt: expiresAt}
	if !utils.ValidKey([]byte(s.cfg.SecretKey)) {
		return creds, nil
	}

	sealed, err := utils.Encrypt([]byte(token), []byte(s.cfg.SecretKey))
	if err != nil {
		return creds, err
	}
	creds.AccessToken = sealed
	creds.Encrypted = true
	return creds, nil
}

func (s *credentialService) open(creds models.ChannelCredentials) (string, error) {
	if !creds.Encrypted {
		return creds.AccessToken, nil
	}
	if !utils.ValidKey([]byte(s.cfg.SecretKey)) {
		return "", errors.New("channel token is encrypted but SECRET_KEY is not a valid AES key")
	}
	return utils.Decrypt(creds.AccessToken, []byte(s.cfg.SecretKey))
}
