package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/apiclient"
	"gatherly/internal/config"
	"gatherly/internal/ledger"
	"gatherly/internal/log"
	"gatherly/internal/models"
	"gatherly/internal/payments"
	"gatherly/internal/poller"
	"gatherly/internal/session"
)

const paymentSyncInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "gatherly-agent")

	dataDir := cfg.Agent.DataDir
	if dataDir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			dataDir = filepath.Join(base, "gatherly")
		}
	}
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			logger.Warn().Err(err).Str("dir", dataDir).Msg("data dir unavailable, running without local state")
			dataDir = ""
		}
	}

	store := ledger.New(dataDir, logger)
	api := apiclient.New(cfg.Agent.APIBaseURL, cfg.Agent.RequestTimeout, logger)

	cookies := session.NewCookieStore(store, cfg.Agent.SessionMaxAge)
	manager := session.NewManager(session.Config{
		Durable:        session.NewFileStore(store),
		Cookies:        cookies,
		Verifier:       api,
		MaxAge:         cfg.Agent.SessionMaxAge,
		VerifyInterval: cfg.Agent.VerifyInterval,
		OnLogout: func() {
			logger.Info().Msg("session ended, sign in again to continue")
		},
		Logger: logger,
	})

	payStore := payments.NewStore(store, logger)

	notify := poller.New(api, alertLog{logger}, cookies.Token, cfg.Agent.PollInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := manager.Restore(ctx)
	logger.Info().Str("state", string(state)).Msg("session restored")

	go manager.Run(ctx)
	go notify.Run(ctx)
	go syncPayments(ctx, manager, api, payStore, logger)

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}

// alertLog renders poller alerts as log lines.
type alertLog struct {
	log zerolog.Logger
}

func (a alertLog) Notify(n models.Notification) {
	a.log.Info().
		Str("type", string(n.Type)).
		Str("title", n.Title).
		Msg(n.Message)
}

func (a alertLog) NotifyMore(count int) {
	a.log.Info().Int("count", count).Msg("more new notifications")
}

// syncPayments refreshes the local payment summaries for events the signed-in
// user organizes. Best effort: any failure waits for the next cycle.
func syncPayments(ctx context.Context, manager *session.Manager, api *apiclient.Client, store *payments.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(paymentSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		state, user := manager.Snapshot()
		token := manager.Token()
		if state != session.StateAuthenticated || token == "" {
			continue
		}

		events, err := api.Events(ctx, token)
		if err != nil {
			logger.Debug().Err(err).Msg("payment sync: list events failed")
			continue
		}

		for _, event := range events {
			if event.OrganizerID != user.ID {
				continue
			}
			attendees, err := api.EventAttendees(ctx, token, event.ID)
			if err != nil {
				logger.Debug().Err(err).Str("event_id", event.ID).Msg("payment sync: list attendees failed")
				continue
			}
			summary := store.Summarize(event.ID, attendees)
			logger.Info().
				Str("event_id", event.ID).
				Int("paid", summary.PaidCount).
				Int("unpaid", summary.UnpaidCount).
				Msg("payment summary refreshed")
		}
	}
}
