package models

import (
	"database/sql/driver"
	"encoding/json"
	"path"
	"strings"
	"time"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
)

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	FilePath  string    `db:"file_path" json:"file_path"`
	AssetType string    `db:"asset_type" json:"asset_type"`
	Prompt    string    `db:"prompt" json:"prompt"`
	Tags      []string  `db:"tags" json:"tags"`
	MetaData  AssetMeta `db:"meta_data" json:"meta_data"`
	ParentID  *int64    `db:"parent_id" json:"parent_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsRemote reports whether FilePath is already an absolute http(s) URL.
func (a *MediaAsset) IsRemote() bool {
	return strings.HasPrefix(a.FilePath, "http://") || strings.HasPrefix(a.FilePath, "https://")
}

// AssetTypeFor guesses the asset type from a path or URL extension.
func AssetTypeFor(p string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "mp4", "mov", "m4v", "webm":
		return AssetTypeVideo
	default:
		return AssetTypeImage
	}
}

// AssetMeta is free-form asset metadata (model, source, original name...).
type AssetMeta map[string]any

func (m AssetMeta) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *AssetMeta) Scan(src any) error {
	out := AssetMeta{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*m = out
	return nil
}
