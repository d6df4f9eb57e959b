package models

import "time"

// PostingHistory is one publish attempt of a post. A row with an empty
// ErrorMessage is a successful attempt.
type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	ChannelID    *int64    `db:"channel_id" json:"channel_id"`
	Platform     string    `db:"platform" json:"platform"`
	MediaID      string    `db:"media_id" json:"media_id"`
	ErrorKind    string    `db:"error_kind" json:"error_kind"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (h *PostingHistory) Succeeded() bool {
	return h.ErrorMessage == ""
}
