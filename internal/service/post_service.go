package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, req transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, status string) ([]*models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, id int64, req transfer.PostUpdate) (*models.Post, error)
	ListPending(ctx context.Context, channelID int64) ([]*models.Post, error)
	SubmitForApproval(ctx context.Context, id int64, note string) (*models.Post, error)
	Approve(ctx context.Context, id int64, approvedBy string, autoSchedule bool, scheduledTime string) (*models.Post, error)
	Reject(ctx context.Context, id int64, rejectedBy, reason string) (*models.Post, error)
	Schedule(ctx context.Context, id int64, scheduledTime, status string) (*models.Post, error)
	History(ctx context.Context, id int64) ([]*models.PostingHistory, error)
}

type postService struct {
	pr  repository.PostRepository
	ph  repository.PostingHistoryRepository
	loc *time.Location
	now func() time.Time
}

// NewPostService interprets schedule times without an offset in loc.
func NewPostService(pr repository.PostRepository, ph repository.PostingHistoryRepository, loc *time.Location) PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &postService{
		pr:  pr,
		ph:  ph,
		loc: loc,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *postService) Create(ctx context.Context, req transfer.PostCreation) (*models.Post, error) {
	post := &models.Post{
		Caption:          req.Caption,
		MediaAssets:      nonNil(req.MediaAssets),
		Channels:         nonNil(req.Channels),
		Status:           models.PostStatusDraft,
		PlatformSettings: models.PlatformSettings(req.PlatformSettings),
	}

	if strings.TrimSpace(req.ScheduledTime) != "" {
		t, err := ParseScheduleTime(req.ScheduledTime, s.loc)
		if err != nil {
			return nil, err
		}
		post.ScheduledTime = &t
	}

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created", "post_id", id)
	return s.Get(ctx, id)
}

func (s *postService) List(ctx context.Context, status string) ([]*models.Post, error) {
	st := models.PostStatus(status)
	if status != "" && !st.Valid() {
		return nil, validationf("unknown status %q", status)
	}
	return s.pr.List(ctx, st)
}

func (s *postService) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, newError(KindValidation, "get post", fmt.Errorf("post %d: %w", id, ErrPostNotFound))
	}
	return post, nil
}

// Update edits content fields. Status only moves through the transition
// operations.
func (s *postService) Update(ctx context.Context, id int64, req transfer.PostUpdate) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublishing {
		return nil, validationf("post %d is being published and cannot be edited: %w", id, ErrInvalidTransition)
	}

	if req.Caption != nil {
		post.Caption = *req.Caption
	}
	if req.MediaAssets != nil {
		post.MediaAssets = nonNil(*req.MediaAssets)
	}
	if req.Channels != nil {
		post.Channels = nonNil(*req.Channels)
	}
	if req.PlatformSettings != nil {
		post.PlatformSettings = post.PlatformSettings.Merge(req.PlatformSettings)
	}
	if req.ScheduledTime != nil {
		if strings.TrimSpace(*req.ScheduledTime) == "" {
			post.ScheduledTime = nil
		} else {
			t, err := ParseScheduleTime(*req.ScheduledTime, s.loc)
			if err != nil {
				return nil, err
			}
			post.ScheduledTime = &t
		}
	}

	if err := s.write(ctx, post, post.Status); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ListPending returns posts awaiting approval, optionally only those that
// target channelID.
func (s *postService) ListPending(ctx context.Context, channelID int64) ([]*models.Post, error) {
	posts, err := s.pr.List(ctx, models.PostStatusPendingApproval)
	if err != nil {
		return nil, err
	}
	if channelID <= 0 {
		return posts, nil
	}

	filtered := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.TargetsChannel(channelID) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *postService) SubmitForApproval(ctx context.Context, id int64, note string) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusDraft {
		return nil, invalidTransition(post, models.PostStatusPendingApproval)
	}

	post.Status = models.PostStatusPendingApproval
	if note = strings.TrimSpace(note); note != "" {
		post.PlatformSettings = post.PlatformSettings.Merge(models.PlatformSettings{models.SettingApprovalNote: note})
	}

	return s.save(ctx, post, models.PostStatusDraft)
}

func (s *postService) Approve(ctx context.Context, id int64, approvedBy string, autoSchedule bool, scheduledTime string) (*models.Post, error) {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return nil, validationf("approved_by is required")
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPendingApproval {
		return nil, invalidTransition(post, models.PostStatusApproved)
	}

	from := post.Status
	now := s.now()
	post.ApprovedAt = &now
	post.ApprovedBy = approvedBy
	post.Status = models.PostStatusApproved

	// The request time only applies when the post goes straight to scheduled.
	if autoSchedule {
		if strings.TrimSpace(scheduledTime) != "" {
			t, err := ParseScheduleTime(scheduledTime, s.loc)
			if err != nil {
				return nil, err
			}
			post.ScheduledTime = &t
		}
		if post.ScheduledTime != nil {
			post.Status = models.PostStatusScheduled
		}
	}

	return s.save(ctx, post, from)
}

func (s *postService) Reject(ctx context.Context, id int64, rejectedBy, reason string) (*models.Post, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("a rejection reason is required")
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPendingApproval {
		return nil, invalidTransition(post, models.PostStatusRejected)
	}

	from := post.Status
	now := s.now()
	post.Status = models.PostStatusRejected
	post.RejectedAt = &now
	post.RejectedBy = strings.TrimSpace(rejectedBy)
	post.RejectionReason = reason

	return s.save(ctx, post, from)
}

// Schedule sets the publish time and moves the post to scheduled or
// approved. Published posts are refused. A post stuck in publishing can be
// rescheduled; the write fails if that attempt concludes first.
func (s *postService) Schedule(ctx context.Context, id int64, scheduledTime, status string) (*models.Post, error) {
	target := models.PostStatus(strings.TrimSpace(status))
	if target == "" {
		target = models.PostStatusScheduled
	}
	if !target.In(models.PostStatusScheduled, models.PostStatusApproved) {
		return nil, validationf("status must be %q or %q, got %q", models.PostStatusScheduled, models.PostStatusApproved, status)
	}
	if strings.TrimSpace(scheduledTime) == "" {
		return nil, validationf("scheduled_time is required")
	}

	t, err := ParseScheduleTime(scheduledTime, s.loc)
	if err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Status.Schedulable() {
		return nil, invalidTransition(post, target)
	}

	from := post.Status
	post.ScheduledTime = &t
	post.Status = target

	return s.save(ctx, post, from)
}

func (s *postService) save(ctx context.Context, post *models.Post, from models.PostStatus) (*models.Post, error) {
	if err := s.write(ctx, post, from); err != nil {
		return nil, err
	}
	slog.Info("post status changed", "post_id", post.ID, "from", from, "status", post.Status)
	return s.Get(ctx, post.ID)
}

// write stores post as long as it is still in the status it was read with.
func (s *postService) write(ctx context.Context, post *models.Post, from models.PostStatus) error {
	err := s.pr.Update(ctx, post, from)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStaleStatus):
		return validationf("post %d is no longer %s: %w", post.ID, from, ErrInvalidTransition)
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindValidation, "update", fmt.Errorf("post %d: %w", post.ID, ErrPostNotFound))
	}
	return fmt.Errorf("failed to update post %d: %w", post.ID, err)
}

func invalidTransition(post *models.Post, to models.PostStatus) error {
	return validationf("cannot move post %d from %s to %s: %w", post.ID, post.Status, to, ErrInvalidTransition)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseScheduleTime accepts RFC3339 or a naive local time interpreted in loc.
// The result is always UTC.
func ParseScheduleTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validationf("invalid scheduled_time %q: use RFC3339 or YYYY-MM-DDTHH:MM[:SS]", raw)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// History lists the publish attempts of a post, newest first.
func (s *postService) History(ctx context.Context, id int64) ([]*models.PostingHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.ph == nil {
		return nil, nil
	}
	return s.ph.ListByPost(ctx, id)
}
