package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	config "github.com/maheshrc27/velvetqueue/configs"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPostRepo struct {
	mu       sync.Mutex
	posts    map[int64]*models.Post
	listErr  error
	stolen   map[int64]bool
	failures map[int64]string
}

func newMemPostRepo(posts ...*models.Post) *memPostRepo {
	r := &memPostRepo{posts: map[int64]*models.Post{}, stolen: map[int64]bool{}, failures: map[int64]string{}}
	for _, p := range posts {
		c := *p
		r.posts[p.ID] = &c
	}
	return r
}

func (r *memPostRepo) status(id int64) models.PostStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[id].Status
}

func (r *memPostRepo) setStatus(id int64, st models.PostStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[id].Status = st
}

func (r *memPostRepo) Create(context.Context, *models.Post) (int64, error) { return 0, nil }

func (r *memPostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *memPostRepo) List(context.Context, models.PostStatus) ([]*models.Post, error) {
	return nil, nil
}

func (r *memPostRepo) ListDue(_ context.Context, statuses []models.PostStatus, now time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Post
	for id := int64(1); id <= int64(len(r.posts)); id++ {
		p, ok := r.posts[id]
		if ok && p.IsDue(now) && p.Status.In(statuses...) {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memPostRepo) Update(context.Context, *models.Post, models.PostStatus) error { return nil }

func (r *memPostRepo) ClaimForPublishing(_ context.Context, id int64, from []models.PostStatus, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[id]
	if r.stolen[id] || !p.Status.In(from...) {
		return false, nil
	}
	p.Status = models.PostStatusPublishing
	return true, nil
}

func (r *memPostRepo) MarkPublished(_ context.Context, id int64, settings models.PlatformSettings, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[id]
	p.Status = models.PostStatusPublished
	p.PlatformSettings = p.PlatformSettings.Merge(settings)
	return nil
}

func (r *memPostRepo) get(id int64) models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.posts[id]
}

func (r *memPostRepo) MarkFailed(_ context.Context, id int64, msg string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.posts[id]
	if p.Status == models.PostStatusPublished {
		return false, nil
	}
	p.Status = models.PostStatusFailed
	r.failures[id] = msg
	return true, nil
}

// fakePublish publishes through the repo unless the post id is in errs.
type fakePublish struct {
	mu    sync.Mutex
	repo  *memPostRepo
	errs  map[int64]error
	order []int64
	hook  func(id int64)
}

func (f *fakePublish) PublishNow(ctx context.Context, id int64) (string, error) {
	f.mu.Lock()
	f.order = append(f.order, id)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	if err := f.errs[id]; err != nil {
		return "", err
	}
	return "M", f.repo.MarkPublished(ctx, id, nil, time.Now())
}

func (f *fakePublish) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.order...)
}

func duePosts() []*models.Post {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { t := base.Add(d); return &t }
	return []*models.Post{
		{ID: 1, Status: models.PostStatusScheduled, ScheduledTime: at(-2 * time.Minute), MediaAssets: []int64{1}},
		{ID: 2, Status: models.PostStatusApproved, ScheduledTime: at(-time.Minute), MediaAssets: []int64{1}},
		{ID: 3, Status: models.PostStatusScheduled, ScheduledTime: at(time.Hour), MediaAssets: []int64{1}},
		{ID: 4, Status: models.PostStatusDraft, ScheduledTime: at(-time.Hour), MediaAssets: []int64{1}},
	}
}

func newTestScheduler(repo *memPostRepo, pub service.PublishService) *Scheduler {
	s := NewScheduler(repo, pub, true, time.Second, 10*time.Millisecond)
	s.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestScheduler_TickPublishesDuePosts(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	pub := &fakePublish{repo: repo}

	require.NoError(t, newTestScheduler(repo, pub).Tick(context.Background()))

	assert.Equal(t, []int64{1, 2}, pub.calls())
	assert.Equal(t, models.PostStatusPublished, repo.status(1))
	assert.Equal(t, models.PostStatusPublished, repo.status(2))
	assert.Equal(t, models.PostStatusScheduled, repo.status(3))
	assert.Equal(t, models.PostStatusDraft, repo.status(4))
}

type memAssetRepo struct{}

func (memAssetRepo) Create(context.Context, *models.MediaAsset) (int64, error) { return 0, nil }

func (memAssetRepo) GetByID(_ context.Context, id int64) (*models.MediaAsset, error) {
	return &models.MediaAsset{ID: id, FilePath: "generated_images/a.png", AssetType: models.AssetTypeImage}, nil
}

func (memAssetRepo) List(context.Context) ([]*models.MediaAsset, error) { return nil, nil }

type stubGraph struct {
	mu   sync.Mutex
	urls []string
}

func (g *stubGraph) Platform() string { return models.PlatformInstagram }

func (g *stubGraph) CreateContainer(_ context.Context, _, _, mediaURL, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.urls = append(g.urls, mediaURL)
	return "C1", nil
}

func (g *stubGraph) Finalize(context.Context, string, string, string) (string, error) {
	return "M1", nil
}

func TestScheduler_TickThroughPublishService(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	graph := &stubGraph{}
	creds := &fakeCreds{creds: &service.Credentials{FromEnv: true, AccountID: "17841400000000000", AccessToken: "env-token"}}
	cfg := &config.Config{PublicBaseURL: "https://cdn.example.com", MediaRoot: "."}

	pub := service.NewPublishService(repo, memAssetRepo{}, nil, creds, service.NewMediaService(cfg, nil), graph, 0)

	require.NoError(t, newTestScheduler(repo, pub).Tick(context.Background()))

	for _, id := range []int64{1, 2} {
		post := repo.get(id)
		assert.Equal(t, models.PostStatusPublished, post.Status)
		assert.Equal(t, "M1", post.PlatformSettings.MediaID(models.PlatformInstagram))
		assert.Equal(t, "M1", post.PlatformSettings["instagram_media_id"])
	}
	assert.Equal(t, models.PostStatusScheduled, repo.status(3))
	assert.Equal(t, models.PostStatusDraft, repo.status(4))
	assert.Equal(t, []string{
		"https://cdn.example.com/generated_images/a.png",
		"https://cdn.example.com/generated_images/a.png",
	}, graph.urls)
}

func TestScheduler_FailureDoesNotAbortBatch(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	pub := &fakePublish{repo: repo, errs: map[int64]error{1: errors.New("post 1 has no media assets")}}

	require.NoError(t, newTestScheduler(repo, pub).Tick(context.Background()))

	assert.Equal(t, []int64{1, 2}, pub.calls())
	assert.Equal(t, models.PostStatusFailed, repo.status(1), "post left in publishing must be marked failed")
	assert.Equal(t, "post 1 has no media assets", repo.failures[1])
	assert.Equal(t, models.PostStatusPublished, repo.status(2))
}

func TestScheduler_SkipsLostClaims(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	repo.stolen[1] = true
	pub := &fakePublish{repo: repo}

	require.NoError(t, newTestScheduler(repo, pub).Tick(context.Background()))
	assert.Equal(t, []int64{2}, pub.calls())
}

func TestScheduler_ListError(t *testing.T) {
	repo := newMemPostRepo()
	repo.listErr = errors.New("connection refused")

	err := newTestScheduler(repo, &fakePublish{repo: repo}).Tick(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestScheduler_StopBetweenPosts(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	stopCh := make(chan struct{})
	pub := &fakePublish{repo: repo}
	pub.hook = func(int64) {
		select {
		case <-stopCh:
		default:
			close(stopCh)
		}
	}

	s := newTestScheduler(repo, pub)
	require.NoError(t, s.tick(context.Background(), stopCh))

	assert.Equal(t, []int64{1}, pub.calls(), "the in-flight post finishes, the rest wait")
	assert.Equal(t, models.PostStatusPublished, repo.status(1))
	assert.Equal(t, models.PostStatusApproved, repo.status(2))
}

func TestScheduler_StartStop(t *testing.T) {
	repo := newMemPostRepo()
	pub := &fakePublish{repo: repo}

	disabled := NewScheduler(repo, pub, false, time.Second, time.Millisecond)
	assert.False(t, disabled.Start())
	assert.False(t, disabled.Running())

	s := newTestScheduler(repo, pub)
	assert.True(t, s.Start())
	assert.False(t, s.Start(), "second start is a no-op")
	assert.True(t, s.Running())

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not complete")
	}
	assert.False(t, s.Running())

	select {
	case <-s.Stop().Done():
	default:
		t.Fatal("stopping a stopped scheduler must return a done context")
	}

	assert.True(t, s.Start(), "a stopped scheduler can start again")
	<-s.Stop().Done()
}

func TestScheduler_RunsTicksOnInterval(t *testing.T) {
	repo := newMemPostRepo(duePosts()...)
	pub := &fakePublish{repo: repo}
	s := newTestScheduler(repo, pub)

	require.True(t, s.Start())
	defer func() { <-s.Stop().Done() }()

	assert.Eventually(t, func() bool { return len(pub.calls()) == 2 }, 5*time.Second, 50*time.Millisecond)
}

type fakeCreds struct {
	creds  *service.Credentials
	err    error
	stored string
	expiry *time.Time
}

func (f *fakeCreds) Resolve(context.Context, string) (*service.Credentials, error) {
	return f.creds, f.err
}

func (f *fakeCreds) SyncFromEnv(context.Context, string) (*models.Channel, error) { return nil, nil }

func (f *fakeCreds) Store(_ context.Context, _ int64, _, token string, expiresAt *time.Time) error {
	f.stored = token
	f.expiry = expiresAt
	return nil
}

type fakeInstagram struct {
	service.Publisher
	refreshed int
}

func (f *fakeInstagram) RefreshToken(context.Context, string) (string, time.Time, error) {
	f.refreshed++
	return "fresh", time.Now().Add(60 * 24 * time.Hour), nil
}

func TestTokenRefreshJob(t *testing.T) {
	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(30 * 24 * time.Hour)

	tests := []struct {
		name    string
		creds   *service.Credentials
		refresh bool
	}{
		{"expiring soon", &service.Credentials{ChannelID: 1, AccessToken: "old", ExpiresAt: &soon}, true},
		{"plenty of time", &service.Credentials{ChannelID: 1, AccessToken: "old", ExpiresAt: &later}, false},
		{"unknown expiry", &service.Credentials{ChannelID: 1, AccessToken: "old"}, false},
		{"env token", &service.Credentials{FromEnv: true, AccessToken: "env", ExpiresAt: &soon}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := &fakeCreds{creds: tt.creds}
			ig := &fakeInstagram{}

			NewTokenRefreshJob(creds, ig).RefreshTokens(context.Background())

			if tt.refresh {
				assert.Equal(t, 1, ig.refreshed)
				assert.Equal(t, "fresh", creds.stored)
				require.NotNil(t, creds.expiry)
			} else {
				assert.Zero(t, ig.refreshed)
				assert.Empty(t, creds.stored)
			}
		})
	}
}
