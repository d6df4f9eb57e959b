package models

import (
	"time"
)

type Post struct {
	ID                   int64            `db:"id" json:"id"`
	Caption              string           `db:"caption" json:"caption"`
	MediaAssets          []int64          `db:"media_assets" json:"media_assets"`
	Channels             []int64          `db:"channels" json:"channels"`
	Status               PostStatus       `db:"status" json:"status"`
	ScheduledTime        *time.Time       `db:"scheduled_time" json:"scheduled_time"`
	PlatformSettings     PlatformSettings `db:"platform_settings" json:"platform_settings"`
	ApprovedAt           *time.Time       `db:"approved_at" json:"approved_at"`
	ApprovedBy           string           `db:"approved_by" json:"approved_by"`
	RejectedAt           *time.Time       `db:"rejected_at" json:"rejected_at"`
	RejectedBy           string           `db:"rejected_by" json:"rejected_by"`
	RejectionReason      string           `db:"rejection_reason" json:"rejection_reason"`
	LastPublishAttemptAt *time.Time       `db:"last_publish_attempt_at" json:"last_publish_attempt_at"`
	LastError            string           `db:"last_error" json:"last_error"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// TargetsChannel reports whether channelID is one of the post's targets.
func (p *Post) TargetsChannel(channelID int64) bool {
	for _, id := range p.Channels {
		if id == channelID {
			return true
		}
	}
	return false
}

// IsDue reports whether the scheduler should pick the post up at now.
func (p *Post) IsDue(now time.Time) bool {
	if p.ScheduledTime == nil || !p.Status.In(DueStatuses...) {
		return false
	}
	return !p.ScheduledTime.After(now)
}

// FirstAsset returns the asset used for single-media publishing.
func (p *Post) FirstAsset() (int64, bool) {
	if len(p.MediaAssets) == 0 {
		return 0, false
	}
	return p.MediaAssets[0], true
}
