package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

const PlatformInstagram = "instagram"

type Channel struct {
	ID          int64              `db:"id" json:"id"`
	Platform    string             `db:"platform" json:"platform"`
	Name        string             `db:"name" json:"name"`
	Credentials ChannelCredentials `db:"credentials" json:"-"`
	IsActive    bool               `db:"is_active" json:"is_active"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// ChannelCredentials is the stored credential blob of a channel. AccessToken is
// AES-GCM sealed when Encrypted is set.
type ChannelCredentials struct {
	UserID      string     `json:"user_id"`
	AccessToken string     `json:"access_token"`
	Encrypted   bool       `json:"encrypted,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (c ChannelCredentials) Empty() bool {
	return c.UserID == "" || c.AccessToken == ""
}

func (c ChannelCredentials) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ChannelCredentials) Scan(src any) error {
	var out ChannelCredentials
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*c = out
	return nil
}
