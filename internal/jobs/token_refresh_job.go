package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/service"
)

// RefreshWindow is how close to expiry a stored token must be before it is refreshed.
const RefreshWindow = 72 * time.Hour

// TokenRefreshJob keeps the canonical channel's long-lived token fresh.
// Tokens supplied through the environment are left to the operator.
type TokenRefreshJob struct {
	creds service.CredentialService
	ig    service.InstagramService
	now   func() time.Time
}

func NewTokenRefreshJob(creds service.CredentialService, ig service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		creds: creds,
		ig:    ig,
		now:   time.Now,
	}
}

func (j *TokenRefreshJob) RefreshTokens(ctx context.Context) {
	creds, err := j.creds.Resolve(ctx, models.PlatformInstagram)
	if err != nil {
		slog.Debug("no stored instagram credentials to refresh", "err", err)
		return
	}
	if creds.FromEnv || creds.ChannelID == 0 {
		return
	}
	if creds.ExpiresAt == nil || creds.ExpiresAt.After(j.now().Add(RefreshWindow)) {
		return
	}

	token, expiresAt, err := j.ig.RefreshToken(ctx, creds.AccessToken)
	if err != nil {
		slog.Warn("unable to refresh instagram token", "channel_id", creds.ChannelID, "err", err)
		return
	}

	if err := j.creds.Store(ctx, creds.ChannelID, creds.AccountID, token, &expiresAt); err != nil {
		slog.Error("failed to store refreshed instagram token", "channel_id", creds.ChannelID, "err", err)
		return
	}
	slog.Info("instagram token refreshed", "channel_id", creds.ChannelID, "expires_at", expiresAt)
}
