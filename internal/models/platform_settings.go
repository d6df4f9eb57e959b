package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Reserved PlatformSettings keys. Anything else is passed through untouched.
const (
	SettingApprovalNote = "approval_note"
	SettingPublishedAt  = "published_at"
)

// MediaIDKey is the key holding the external publish id for platform,
// e.g. "instagram_media_id".
func MediaIDKey(platform string) string {
	return platform + "_media_id"
}

// PlatformSettings holds platform specific state for a post. It is stored as JSONB.
type PlatformSettings map[string]any

// MediaID returns the external publish id recorded for platform, if any.
func (s PlatformSettings) MediaID(platform string) string {
	return s.String(MediaIDKey(platform))
}

func (s PlatformSettings) String(key string) string {
	if s == nil {
		return ""
	}
	switch v := s[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Merge returns a new map with s overlaid by other. Neither input is modified.
func (s PlatformSettings) Merge(other PlatformSettings) PlatformSettings {
	out := make(PlatformSettings, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (s PlatformSettings) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *PlatformSettings) Scan(src any) error {
	out := PlatformSettings{}
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// scanJSON decodes a JSON/JSONB column into dst. NULL leaves dst untouched.
func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
