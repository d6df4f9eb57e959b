package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
)

type fakePostRepo struct {
	mu        sync.Mutex
	posts     map[int64]*models.Post
	nextID    int64
	failMarks error
	updates   int

	// beforeUpdate runs against the stored row ahead of the status check, to
	// simulate a concurrent writer.
	beforeUpdate func(stored *models.Post)
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[int64]*models.Post{}}
	for _, p := range posts {
		if p.ID == 0 {
			r.nextID++
			p.ID = r.nextID
		} else if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.posts[p.ID] = clonePost(p)
	}
	return r
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.MediaAssets = append([]int64(nil), p.MediaAssets...)
	c.Channels = append([]int64(nil), p.Channels...)
	c.PlatformSettings = models.PlatformSettings{}.Merge(p.PlatformSettings)
	return &c
}

func (r *fakePostRepo) get(id int64) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (r *fakePostRepo) Create(_ context.Context, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := clonePost(post)
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	r.posts[c.ID] = c
	return c.ID, nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	return r.get(id), nil
}

func (r *fakePostRepo) List(_ context.Context, status models.PostStatus) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if status == "" || p.Status == status {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePostRepo) ListDue(_ context.Context, statuses []models.PostStatus, now time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.Status.In(statuses...) && p.ScheduledTime != nil && !p.ScheduledTime.After(now) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(*out[j].ScheduledTime) })
	return out, nil
}

func (r *fakePostRepo) Update(_ context.Context, post *models.Post, expected models.PostStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(stored)
	}
	if stored.Status != expected {
		return repository.ErrStaleStatus
	}
	r.updates++
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *fakePostRepo) ClaimForPublishing(_ context.Context, id int64, from []models.PostStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || !p.Status.In(from...) {
		return false, nil
	}
	p.Status = models.PostStatusPublishing
	p.LastPublishAttemptAt = &at
	p.LastError = ""
	return true, nil
}

func (r *fakePostRepo) MarkPublished(_ context.Context, id int64, settings models.PlatformSettings, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = models.PostStatusPublished
	p.PlatformSettings = p.PlatformSettings.Merge(settings)
	p.LastPublishAttemptAt = &at
	p.LastError = ""
	return nil
}

func (r *fakePostRepo) MarkFailed(_ context.Context, id int64, message string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMarks != nil {
		return false, r.failMarks
	}
	p, ok := r.posts[id]
	if !ok || p.Status == models.PostStatusPublished {
		return false, nil
	}
	p.Status = models.PostStatusFailed
	p.LastError = message
	p.LastPublishAttemptAt = &at
	return true, nil
}

type fakeAssetRepo struct {
	assets map[int64]*models.MediaAsset
}

func newFakeAssetRepo(assets ...*models.MediaAsset) *fakeAssetRepo {
	r := &fakeAssetRepo{assets: map[int64]*models.MediaAsset{}}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeAssetRepo) Create(_ context.Context, ma *models.MediaAsset) (int64, error) {
	id := int64(len(r.assets) + 1)
	c := *ma
	c.ID = id
	r.assets[id] = &c
	return id, nil
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id int64) (*models.MediaAsset, error) {
	return r.assets[id], nil
}

func (r *fakeAssetRepo) List(_ context.Context) ([]*models.MediaAsset, error) {
	var out []*models.MediaAsset
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*models.PostingHistory
	err     error
}

func (r *fakeHistoryRepo) Create(_ context.Context, ph *models.PostingHistory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	c := *ph
	c.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, &c)
	return c.ID, nil
}

func (r *fakeHistoryRepo) ListByPost(_ context.Context, postID int64) ([]*models.PostingHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PostingHistory
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].PostID == postID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) all() []*models.PostingHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.PostingHistory(nil), r.entries...)
}

type fakeChannelRepo struct {
	channels  []*models.Channel
	setErr    error
	credWrite int
}

func (r *fakeChannelRepo) Create(_ context.Context, ch *models.Channel) (int64, error) {
	c := *ch
	c.ID = int64(len(r.channels) + 1)
	r.channels = append(r.channels, &c)
	return c.ID, nil
}

func (r *fakeChannelRepo) GetByID(_ context.Context, id int64) (*models.Channel, error) {
	for _, ch := range r.channels {
		if ch.ID == id {
			c := *ch
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepo) List(_ context.Context) ([]*models.Channel, error) {
	return append([]*models.Channel(nil), r.channels...), nil
}

func (r *fakeChannelRepo) GetCanonical(_ context.Context, platform string) (*models.Channel, error) {
	for _, ch := range r.channels {
		if ch.Platform == platform && ch.IsActive {
			c := *ch
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepo) GetByPlatformAndName(_ context.Context, platform, name string) (*models.Channel, error) {
	for _, ch := range r.channels {
		if ch.Platform == platform && ch.Name == name {
			c := *ch
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepo) SetCredentials(_ context.Context, id int64, creds models.ChannelCredentials) error {
	if r.setErr != nil {
		return r.setErr
	}
	for _, ch := range r.channels {
		if ch.ID == id {
			ch.Credentials = creds
			r.credWrite++
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakePublisher struct {
	mu          sync.Mutex
	createErr   error
	finalizeErr error
	mediaID     string
	creates     int
	finalizes   int
	lastURL     string
	lastToken   string
	lastAccount string
}

func (p *fakePublisher) Platform() string { return models.PlatformInstagram }

func (p *fakePublisher) CreateContainer(_ context.Context, accountID, accessToken, mediaURL, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	p.lastURL, p.lastToken, p.lastAccount = mediaURL, accessToken, accountID
	if p.createErr != nil {
		return "", p.createErr
	}
	return "C1", nil
}

func (p *fakePublisher) Finalize(_ context.Context, _, _, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalizes++
	if p.finalizeErr != nil {
		return "", p.finalizeErr
	}
	if p.mediaID == "" {
		return "M1", nil
	}
	return p.mediaID, nil
}

func (p *fakePublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates + p.finalizes
}

type fakeUploader struct {
	url   string
	err   error
	calls int
	names []string
}

func (u *fakeUploader) Name() string { return "fake" }

func (u *fakeUploader) Upload(_ context.Context, filename string, _ []byte) (string, error) {
	u.calls++
	u.names = append(u.names, filename)
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

var errStore = errors.New("store unavailable")
