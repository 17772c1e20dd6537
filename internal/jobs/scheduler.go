package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gatherly/internal/repository"
)

const digestStream = "notify:digest"

// Scheduler runs the housekeeping jobs: purging expired sessions and
// enqueueing the hourly notification digest for offline delivery.
type Scheduler struct {
	cron     *cron.Cron
	queue    *redis.Client
	sessions *repository.SessionRepository
	log      zerolog.Logger
}

func NewScheduler(queue *redis.Client, sessions *repository.SessionRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		queue:    queue,
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.enqueueDigest); err != nil { // hourly digest
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs to finish, up to five seconds.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions purged")
	}
}

func (s *Scheduler) enqueueDigest() {
	if s.queue == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: digestStream,
		Values: map[string]any{
			"type": "digest",
			"at":   time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue digest failed")
	}
}
