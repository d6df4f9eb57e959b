package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

// Publisher is the two step container flow shared by Graph API platforms.
type Publisher interface {
	Platform() string
	CreateContainer(ctx context.Context, accountID, accessToken, mediaURL, caption string) (string, error)
	Finalize(ctx context.Context, accountID, accessToken, containerID string) (string, error)
}

type InstagramService interface {
	Publisher
	RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error)
}

// PlatformError is a non-2xx answer from the Graph API.
type PlatformError struct {
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
}

func (e *PlatformError) Error() string {
	if e.IsAuth() {
		return fmt.Sprintf("Instagram access token has expired. %s. Please update your INSTAGRAM_ACCESS_TOKEN in the .env file or channel settings.", e.Message)
	}
	return fmt.Sprintf("Instagram API error: %s (Code: %d, Type: %s)", e.Message, e.Code, e.Type)
}

// IsAuth reports token and permission failures. These will not succeed on
// retry until an operator supplies a new token.
func (e *PlatformError) IsAuth() bool {
	switch {
	case e.Code == 190, e.Code == 10, e.Code >= 200 && e.Code <= 299:
		return true
	case e.StatusCode == http.StatusUnauthorized:
		return true
	}
	return looksLikeTokenProblem(e.Message)
}

func (e *PlatformError) Kind() ErrorKind {
	if e.IsAuth() {
		return KindAuth
	}
	return KindUpstream
}

type instagramService struct {
	cfg    config.Instagram
	client *resty.Client
}

func NewInstagramService(cfg config.Instagram) InstagramService {
	client := resty.New().
		SetTimeout(90*time.Second).
		SetHeader("Content-Type", "application/json")

	return &instagramService{cfg: cfg, client: client}
}

func (s *instagramService) Platform() string {
	return models.PlatformInstagram
}

func (s *instagramService) endpoint(accountID, edge string) string {
	return fmt.Sprintf("%s/%s/%s/%s", s.cfg.GraphURL, s.cfg.APIVersion, accountID, edge)
}

func (s *instagramService) CreateContainer(ctx context.Context, accountID, accessToken, mediaURL, caption string) (string, error) {
	slog.Info("creating instagram media container", "account_id", accountID, "image_url", mediaURL, "caption_len", len(caption))

	id, err := s.post(ctx, s.endpoint(accountID, "media"), transfer.InstagramContainerRequest{
		ImageURL:    mediaURL,
		Caption:     caption,
		AccessToken: accessToken,
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", newError(KindUpstream, "create container", errors.New("no container id returned"))
	}

	slog.Info("instagram media container created", "container_id", id)
	return id, nil
}

func (s *instagramService) Finalize(ctx context.Context, accountID, accessToken, containerID string) (string, error) {
	id, err := s.post(ctx, s.endpoint(accountID, "media_publish"), transfer.InstagramPublishRequest{
		CreationID:  containerID,
		AccessToken: accessToken,
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", newError(KindUpstream, "publish container", errors.New("no media id returned"))
	}

	slog.Info("instagram media published", "container_id", containerID, "media_id", id)
	return id, nil
}

func (s *instagramService) post(ctx context.Context, url string, body any) (string, error) {
	var result transfer.InstagramIDResponse
	var apiErr transfer.InstagramErrorResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(url)
	if err != nil {
		slog.Error("instagram request failed", "url", url, "err", err)
		return "", newError(KindNetwork, "instagram request", err)
	}

	if resp.IsError() {
		perr := toPlatformError(resp, apiErr)
		slog.Error("instagram api error", "status", resp.StatusCode(), "code", perr.Code, "message", perr.Message)
		return "", perr
	}

	return result.ID, nil
}

func toPlatformError(resp *resty.Response, apiErr transfer.InstagramErrorResponse) *PlatformError {
	perr := &PlatformError{
		StatusCode: resp.StatusCode(),
		Code:       apiErr.Error.Code,
		Subcode:    apiErr.Error.ErrorSubcode,
		Type:       apiErr.Error.Type,
		Message:    apiErr.Error.Message,
	}
	if perr.Message == "" {
		raw := strings.TrimSpace(resp.String())
		if raw == "" {
			raw = resp.Status()
		}
		perr.Message = truncateRunes(raw, 500)
	}
	return perr
}

// RefreshToken exchanges a long-lived token for a fresh one.
func (s *instagramService) RefreshToken(ctx context.Context, accessToken string) (string, time.Time, error) {
	var result transfer.InstagramRefreshResponse
	var apiErr transfer.InstagramErrorResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":   "ig_refresh_token",
			"access_token": accessToken,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get(s.cfg.RefreshURL + "/refresh_access_token")
	if err != nil {
		return "", time.Time{}, newError(KindNetwork, "refresh token", err)
	}
	if resp.IsError() {
		return "", time.Time{}, toPlatformError(resp, apiErr)
	}
	if result.AccessToken == "" {
		return "", time.Time{}, newError(KindUpstream, "refresh token", errors.New("no access token returned"))
	}

	return result.AccessToken, GetExpiresAt(int(result.ExpiresIn)), nil
}
