package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
)

// PublishService drives one post through the platform publish flow and
// records the outcome on the post.
type PublishService interface {
	PublishNow(ctx context.Context, postID int64) (string, error)
}

type publishService struct {
	pr         repository.PostRepository
	ma         repository.MediaAssetRepository
	ph         repository.PostingHistoryRepository
	creds      CredentialService
	media      MediaService
	publisher  Publisher
	settleWait time.Duration
	now        func() time.Time
}

// NewPublishService wires the orchestrator. ph may be nil, in which case no
// attempt history is kept.
func NewPublishService(
	pr repository.PostRepository,
	ma repository.MediaAssetRepository,
	ph repository.PostingHistoryRepository,
	creds CredentialService,
	media MediaService,
	publisher Publisher,
	settleWait time.Duration) PublishService {
	return &publishService{
		pr:         pr,
		ma:         ma,
		ph:         ph,
		creds:      creds,
		media:      media,
		publisher:  publisher,
		settleWait: settleWait,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// PublishNow publishes the post and returns the external media id. A post
// that is already published with a recorded id returns that id untouched.
func (s *publishService) PublishNow(ctx context.Context, postID int64) (string, error) {
	platform := s.publisher.Platform()

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("failed to load post %d: %w", postID, err)
	}
	if post == nil {
		return "", newError(KindValidation, "publish", fmt.Errorf("post %d: %w", postID, ErrPostNotFound))
	}

	if post.Status == models.PostStatusPublished {
		if id := post.PlatformSettings.MediaID(platform); id != "" {
			slog.Info("post already published, skipping", "post_id", postID, "media_id", id)
			publishAttemptsTotal.WithLabelValues("skipped").Inc()
			return id, nil
		}
	}

	asset, err := s.validate(ctx, post)
	if err != nil {
		publishAttemptsTotal.WithLabelValues("failed_" + string(KindOf(err))).Inc()
		return "", err
	}

	if post.Status != models.PostStatusPublishing {
		claimed, err := s.pr.ClaimForPublishing(ctx, postID, models.PublishableStatuses, s.now())
		if err != nil {
			return "", fmt.Errorf("failed to claim post %d: %w", postID, err)
		}
		if !claimed {
			fresh, err := s.pr.GetByID(ctx, postID)
			if err == nil && fresh != nil && fresh.Status == models.PostStatusPublished {
				if id := fresh.PlatformSettings.MediaID(platform); id != "" {
					publishAttemptsTotal.WithLabelValues("skipped").Inc()
					return id, nil
				}
			}
			slog.Warn("publish claim lost, continuing", "post_id", postID)
		}
	}

	start := time.Now()
	mediaID, channelID, err := s.publish(ctx, post, asset, platform)
	publishDuration.Observe(time.Since(start).Seconds())
	s.recordAttempt(ctx, postID, channelID, platform, mediaID, err)
	if err != nil {
		s.recordFailure(ctx, postID, err)
		publishAttemptsTotal.WithLabelValues("failed_" + string(KindOf(err))).Inc()
		return "", err
	}

	at := s.now()
	settings := models.PlatformSettings{
		models.MediaIDKey(platform): mediaID,
		models.SettingPublishedAt:   at.Format(time.RFC3339),
	}
	if err := s.pr.MarkPublished(context.WithoutCancel(ctx), postID, settings, at); err != nil {
		slog.Error("post published but status update failed", "post_id", postID, "media_id", mediaID, "err", err)
		return mediaID, fmt.Errorf("published to %s as %s but failed to record it: %w", platform, mediaID, err)
	}

	publishAttemptsTotal.WithLabelValues("published").Inc()
	slog.Info("post published", "post_id", postID, "media_id", mediaID)
	return mediaID, nil
}

// validate runs before any status write so rejected calls leave the post as it was.
func (s *publishService) validate(ctx context.Context, post *models.Post) (*models.MediaAsset, error) {
	assetID, ok := post.FirstAsset()
	if !ok {
		return nil, validationf("post %d has no media assets", post.ID)
	}

	if !post.Status.In(models.PublishableStatuses...) && post.Status != models.PostStatusPublishing {
		return nil, validationf("post %d is %s and cannot be published: %w", post.ID, post.Status, ErrInvalidTransition)
	}

	asset, err := s.ma.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %d: %w", assetID, err)
	}
	if asset == nil {
		return nil, validationf("media asset %d for post %d not found", assetID, post.ID)
	}
	return asset, nil
}

// publish returns the media id and the channel whose credentials were used,
// 0 when they came from the environment or could not be resolved.
func (s *publishService) publish(ctx context.Context, post *models.Post, asset *models.MediaAsset, platform string) (string, int64, error) {
	creds, err := s.creds.Resolve(ctx, platform)
	if err != nil {
		return "", 0, err
	}

	mediaURL, err := s.media.ResolveURL(ctx, asset)
	if err != nil {
		return "", creds.ChannelID, err
	}

	slog.Info("publishing post", "post_id", post.ID, "platform", platform, "media_url", mediaURL, "env_credentials", creds.FromEnv)

	containerID, err := s.publisher.CreateContainer(ctx, creds.AccountID, creds.AccessToken, mediaURL, post.Caption)
	if err != nil {
		return "", creds.ChannelID, err
	}

	// The container needs time to ingest the media before it can be published.
	if err := sleepContext(ctx, s.settleWait); err != nil {
		return "", creds.ChannelID, newError(KindNetwork, "wait for container", err)
	}

	mediaID, err := s.publisher.Finalize(ctx, creds.AccountID, creds.AccessToken, containerID)
	return mediaID, creds.ChannelID, err
}

func (s *publishService) recordAttempt(ctx context.Context, postID, channelID int64, platform, mediaID string, cause error) {
	if s.ph == nil {
		return
	}

	entry := &models.PostingHistory{
		PostID:   postID,
		Platform: platform,
		MediaID:  mediaID,
	}
	if channelID != 0 {
		entry.ChannelID = &channelID
	}
	if cause != nil {
		entry.ErrorKind = string(KindOf(cause))
		entry.ErrorMessage = TruncateError(cause.Error())
	}

	if _, err := s.ph.Create(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to record posting history", "post_id", postID, "err", err)
	}
}

// recordFailure stores the error on the post. Store errors are logged and
// dropped so the caller always sees the original failure.
func (s *publishService) recordFailure(ctx context.Context, postID int64, cause error) {
	msg := TruncateError(cause.Error())

	recorded, err := s.pr.MarkFailed(context.WithoutCancel(ctx), postID, msg, s.now())
	if err != nil {
		slog.Error("failed to record publish failure", "post_id", postID, "cause", cause, "err", err)
		return
	}
	if !recorded {
		slog.Warn("post was published concurrently, failure not recorded", "post_id", postID)
		return
	}
	slog.Warn("publish failed", "post_id", postID, "kind", KindOf(cause), "err", msg)
}
