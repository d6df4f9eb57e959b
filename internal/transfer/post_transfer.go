package transfer

import (
	"github.com/golang-jwt/jwt/v5"
)

type PostCreation struct {
	Caption          string         `json:"caption"`
	MediaAssets      []int64        `json:"media_assets"`
	Channels         []int64        `json:"channels"`
	ScheduledTime    string         `json:"scheduled_time"`
	PlatformSettings map[string]any `json:"platform_settings"`
}

// PostUpdate carries optional fields. Nil means leave unchanged.
type PostUpdate struct {
	Caption          *string        `json:"caption"`
	MediaAssets      *[]int64       `json:"media_assets"`
	Channels         *[]int64       `json:"channels"`
	ScheduledTime    *string        `json:"scheduled_time"`
	PlatformSettings map[string]any `json:"platform_settings"`
}

type SubmitRequest struct {
	Note string `json:"note"`
}

type ApproveRequest struct {
	ApprovedBy    string `json:"approved_by"`
	AutoSchedule  *bool  `json:"auto_schedule"`
	ScheduledTime string `json:"scheduled_time"`
}

type RejectRequest struct {
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

type ScheduleRequest struct {
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
}

type PublishResponse struct {
	PostID  int64  `json:"post_id"`
	MediaID string `json:"media_id,omitempty"`
	Queued  bool   `json:"queued,omitempty"`
	Status  string `json:"status"`
}

type ConnectRequest struct {
	Platform    string `json:"platform"`
	Name        string `json:"name"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

type AssetCreation struct {
	FilePath  string         `json:"file_path"`
	AssetType string         `json:"asset_type"`
	Prompt    string         `json:"prompt"`
	Tags      []string       `json:"tags"`
	MetaData  map[string]any `json:"meta_data"`
	ParentID  *int64         `json:"parent_id"`
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Guidance string `json:"guidance,omitempty"`
}

type OperatorClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}
