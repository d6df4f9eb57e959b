package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from PostStatus
		to   PostStatus
		want bool
	}{
		{PostStatusDraft, PostStatusPendingApproval, true},
		{PostStatusPendingApproval, PostStatusApproved, true},
		{PostStatusPendingApproval, PostStatusScheduled, true},
		{PostStatusPendingApproval, PostStatusRejected, true},
		{PostStatusApproved, PostStatusScheduled, true},
		{PostStatusDraft, PostStatusScheduled, true},
		{PostStatusScheduled, PostStatusPublishing, true},
		{PostStatusApproved, PostStatusPublishing, true},
		{PostStatusPublishing, PostStatusPublished, true},
		{PostStatusPublishing, PostStatusFailed, true},
		{PostStatusFailed, PostStatusScheduled, true},
		{PostStatusFailed, PostStatusPublishing, true},

		{PostStatusDraft, PostStatusPublishing, false},
		{PostStatusDraft, PostStatusRejected, false},
		{PostStatusRejected, PostStatusPublishing, false},
		{PostStatusPublished, PostStatusScheduled, false},
		{PostStatusPublished, PostStatusFailed, false},
		{PostStatusPublishing, PostStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestPostStatus_Valid(t *testing.T) {
	for _, s := range AllPostStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, PostStatus("posted").Valid())
	assert.False(t, PostStatus("").Valid())
}

func TestPostStatus_Schedulable(t *testing.T) {
	assert.True(t, PostStatusRejected.Schedulable())
	assert.True(t, PostStatusFailed.Schedulable())
	assert.False(t, PostStatusPublished.Schedulable())
	assert.True(t, PostStatusPublishing.Schedulable())
	assert.True(t, PostStatusPublishing.CanTransition(PostStatusScheduled))
}

func TestPost_IsDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Minute)

	assert.True(t, (&Post{Status: PostStatusScheduled, ScheduledTime: &past}).IsDue(now))
	assert.True(t, (&Post{Status: PostStatusApproved, ScheduledTime: &now}).IsDue(now))
	assert.False(t, (&Post{Status: PostStatusScheduled, ScheduledTime: &future}).IsDue(now))
	assert.False(t, (&Post{Status: PostStatusScheduled}).IsDue(now))
	assert.False(t, (&Post{Status: PostStatusDraft, ScheduledTime: &past}).IsDue(now))
}

func TestPlatformSettings_Merge(t *testing.T) {
	old := PlatformSettings{SettingApprovalNote: "ship it", "caption_variant": "b"}
	merged := old.Merge(PlatformSettings{MediaIDKey(PlatformInstagram): "M1", "caption_variant": "c"})

	assert.Equal(t, "M1", merged.MediaID(PlatformInstagram))
	assert.Equal(t, "ship it", merged.String(SettingApprovalNote))
	assert.Equal(t, "c", merged.String("caption_variant"))
	assert.Equal(t, "b", old.String("caption_variant"), "merge must not mutate the receiver")
	assert.Empty(t, PlatformSettings(nil).MediaID(PlatformInstagram))
}

func TestPlatformSettings_ScanValue(t *testing.T) {
	raw, err := PlatformSettings{"instagram_media_id": "M1"}.Value()
	require.NoError(t, err)

	var got PlatformSettings
	require.NoError(t, got.Scan(raw))
	assert.Equal(t, "M1", got.MediaID(PlatformInstagram))

	var empty PlatformSettings
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)

	assert.Error(t, got.Scan(42))
}

func TestChannelCredentials_Scan(t *testing.T) {
	var creds ChannelCredentials
	require.NoError(t, creds.Scan(`{"user_id":"1784","access_token":"tok","encrypted":true}`))
	assert.Equal(t, "1784", creds.UserID)
	assert.True(t, creds.Encrypted)
	assert.False(t, creds.Empty())
	assert.True(t, ChannelCredentials{UserID: "1784"}.Empty())
}

func TestAssetTypeFor(t *testing.T) {
	assert.Equal(t, AssetTypeImage, AssetTypeFor("generated_images/a.JPG"))
	assert.Equal(t, AssetTypeVideo, AssetTypeFor("https://cdn.example.com/reel.mp4"))
	assert.Equal(t, AssetTypeImage, AssetTypeFor("no-extension"))
}
