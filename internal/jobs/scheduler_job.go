package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/repository"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/robfig/cron/v3"
)

type periodicJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
}

// Scheduler scans for due posts on a fixed interval and publishes them one
// at a time. It owns a cron instance that also drives the other periodic jobs.
type Scheduler struct {
	pr        repository.PostRepository
	publisher service.PublishService
	enabled   bool
	interval  time.Duration
	backoff   time.Duration
	now       func() time.Time

	mu     sync.Mutex
	c      *cron.Cron
	stopCh chan struct{}
	jobs   []periodicJob
}

func NewScheduler(pr repository.PostRepository, publisher service.PublishService, enabled bool, interval, backoff time.Duration) *Scheduler {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &Scheduler{
		pr:        pr,
		publisher: publisher,
		enabled:   enabled,
		interval:  interval,
		backoff:   backoff,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Every registers an extra job to run on the scheduler's cron. Jobs added
// after Start run from the next Start.
func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, periodicJob{name: name, interval: interval, run: run})
}

// Start begins ticking. It returns false when the scheduler is disabled or
// already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		slog.Info("scheduler disabled")
		return false
	}
	if s.c != nil {
		return false
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	stopCh := make(chan struct{})
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.run(stopCh) }))
	for _, j := range s.jobs {
		j := j
		c.Schedule(cron.Every(j.interval), cron.FuncJob(func() {
			slog.Debug("running periodic job", "job", j.name)
			j.run(context.Background())
		}))
	}

	s.c = c
	s.stopCh = stopCh
	c.Start()

	slog.Info("scheduler started", "interval", s.interval, "extra_jobs", len(s.jobs))
	return true
}

// Stop prevents further ticks. The returned context is done once any tick in
// progress has finished its current post.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	close(s.stopCh)
	ctx := s.c.Stop()
	s.c = nil
	s.stopCh = nil

	slog.Info("scheduler stop requested")
	return ctx
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c != nil
}

func (s *Scheduler) run(stopCh <-chan struct{}) {
	err := s.tick(context.Background(), stopCh)
	if err == nil {
		return
	}

	slog.Error("scheduler tick failed", "err", err)
	service.ObserveSchedulerTick("error", -1)

	timer := time.NewTimer(s.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-stopCh:
	}
}

// Tick runs one scan outside the cron, e.g. from tests or an admin command.
func (s *Scheduler) Tick(ctx context.Context) error {
	return s.tick(ctx, nil)
}

func (s *Scheduler) tick(ctx context.Context, stopCh <-chan struct{}) error {
	now := s.now()
	posts, err := s.pr.ListDue(ctx, models.DueStatuses, now)
	if err != nil {
		return fmt.Errorf("failed to list due posts: %w", err)
	}
	service.ObserveSchedulerTick("ok", len(posts))
	if len(posts) == 0 {
		return nil
	}

	slog.Info("due posts found", "count", len(posts))
	for _, post := range posts {
		if stopped(stopCh) {
			slog.Info("scheduler stopping, leaving remaining posts for the next run")
			return nil
		}
		s.processPost(ctx, post, now)
	}
	return nil
}

func (s *Scheduler) processPost(ctx context.Context, post *models.Post, now time.Time) {
	claimed, err := s.pr.ClaimForPublishing(ctx, post.ID, models.DueStatuses, now)
	if err != nil {
		slog.Error("failed to claim due post", "post_id", post.ID, "err", err)
		return
	}
	if !claimed {
		slog.Debug("due post claimed elsewhere, skipping", "post_id", post.ID)
		return
	}

	mediaID, publishErr := s.publisher.PublishNow(ctx, post.ID)
	if publishErr != nil {
		slog.Warn("scheduled publish failed", "post_id", post.ID, "err", publishErr)
	} else {
		slog.Info("scheduled post published", "post_id", post.ID, "media_id", mediaID)
	}

	s.ensureConcluded(ctx, post.ID, publishErr)
}

// ensureConcluded marks the post failed if the attempt left it anywhere other
// than published or failed.
func (s *Scheduler) ensureConcluded(ctx context.Context, postID int64, cause error) {
	fresh, err := s.pr.GetByID(ctx, postID)
	if err != nil || fresh == nil {
		slog.Error("failed to re-read post after publish", "post_id", postID, "err", err)
		return
	}
	if fresh.Status.Terminal() {
		return
	}

	msg := fmt.Sprintf("publish attempt ended with status %s", fresh.Status)
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := s.pr.MarkFailed(context.WithoutCancel(ctx), postID, service.TruncateError(msg), s.now()); err != nil {
		slog.Error("failed to mark post failed", "post_id", postID, "err", err)
	}
}

func stopped(stopCh <-chan struct{}) bool {
	if stopCh == nil {
		return false
	}
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
