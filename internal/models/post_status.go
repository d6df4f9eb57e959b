package models

// PostStatus is a post's position in the publication lifecycle.
//
//	draft -> pending_approval -> approved | rejected
//	pending_approval -> scheduled            (approve with auto-schedule)
//	approved | draft | failed | ... -> scheduled
//	scheduled | approved | failed -> publishing -> published | failed
type PostStatus string

const (
	PostStatusDraft           PostStatus = "draft"
	PostStatusPendingApproval PostStatus = "pending_approval"
	PostStatusApproved        PostStatus = "approved"
	PostStatusScheduled       PostStatus = "scheduled"
	PostStatusPublishing      PostStatus = "publishing"
	PostStatusPublished       PostStatus = "published"
	PostStatusRejected        PostStatus = "rejected"
	PostStatusFailed          PostStatus = "failed"
)

var AllPostStatuses = []PostStatus{
	PostStatusDraft,
	PostStatusPendingApproval,
	PostStatusApproved,
	PostStatusScheduled,
	PostStatusPublishing,
	PostStatusPublished,
	PostStatusRejected,
	PostStatusFailed,
}

// DueStatuses are the statuses the scheduler publishes once scheduled_time has passed.
var DueStatuses = []PostStatus{PostStatusScheduled, PostStatusApproved}

// PublishableStatuses may be claimed for publishing by a manual trigger.
// failed is included so an operator can retry.
var PublishableStatuses = []PostStatus{PostStatusApproved, PostStatusScheduled, PostStatusFailed}

var transitions = map[PostStatus][]PostStatus{
	PostStatusDraft:           {PostStatusPendingApproval, PostStatusScheduled, PostStatusApproved},
	PostStatusPendingApproval: {PostStatusApproved, PostStatusScheduled, PostStatusRejected},
	PostStatusApproved:        {PostStatusScheduled, PostStatusPublishing},
	PostStatusScheduled:       {PostStatusScheduled, PostStatusApproved, PostStatusPublishing},
	PostStatusPublishing:      {PostStatusPublished, PostStatusFailed, PostStatusScheduled, PostStatusApproved},
	PostStatusFailed:          {PostStatusScheduled, PostStatusApproved, PostStatusPublishing},
	PostStatusRejected:        {PostStatusScheduled, PostStatusApproved},
	PostStatusPublished:       {},
}

func (s PostStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s PostStatus) In(set ...PostStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
func (s PostStatus) CanTransition(next PostStatus) bool {
	return next.In(transitions[s]...)
}

// Schedulable reports whether an explicit schedule request may move the post.
// Anything not yet published qualifies, including a row left in publishing.
func (s PostStatus) Schedulable() bool {
	return s.Valid() && s != PostStatusPublished
}

// Terminal reports whether a publish attempt has concluded for the post.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

func StatusStrings(set []PostStatus) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}
