package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"ranked-allocator/allocator"
	"ranked-allocator/config"
	"ranked-allocator/health"
	"ranked-allocator/intake"
	"ranked-allocator/metrics"
	"ranked-allocator/queues"
	qpubsub "ranked-allocator/queues/pubsub"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"k8s.io/apimachinery/pkg/util/sets"
)

var version = "source"

func setLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	cfg := config.Load()
	setLogger(cfg.LogLevel)
	log.Info().Msgf("Starting ranked-allocator version: %s", version)
	log.Info().Interface("config", cfg.Redacted()).Msg("config loaded")

	if cfg.InputFile == "" {
		log.Fatal().Msg("missing batch input; set ALLOCATOR_INPUT_FILE")
	}
	batch, err := intake.Load(cfg.InputFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.InputFile).Msg("failed to load allocation batch")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	mux := http.NewServeMux()
	metrics.Register(mux)
	health.Register(mux, ready.Load)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting metrics/health server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	for _, e := range batch.Roster.Queue().Ranking() {
		log.Info().Int("rank", e.Rank).Str("requesterId", e.RequesterID).Str("name", e.Name).
			Str("class", e.Class.String()).Float64("merit", e.Merit).Float64("score", e.Score).Msg("priority ranking")
	}

	for _, res := range batch.Registry.Available() {
		log.Debug().Str("resourceId", res.ID).Str("type", res.Type).Str("status", string(res.Status())).
			Int("remaining", res.Remaining()).Strs("features", sets.List(res.Features)).Msg("open resource")
	}

	var publisher queues.Publisher
	if cfg.PublishEnabled() {
		if cfg.CredentialsFile != "" {
			log.Info().Str("credsFile", cfg.CredentialsFile).Msg("using explicit Google credentials file")
		} else {
			log.Info().Msg("using default Google credentials (ambient)")
		}
		p := qpubsub.NewPublisher(cfg.GoogleProjectID, cfg.PubsubTopic, cfg.CredentialsFile)
		defer func() {
			if err := p.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close publisher")
			}
		}()
		publisher = p
	}

	report, err := allocator.NewController(publisher).Execute(ctx, batch.Roster, batch.Registry)
	if err != nil {
		log.Error().Err(err).Msg("allocation results were not fully published")
	}
	logReport(report)
	ready.Store(true)

	if !cfg.ExitAfterRun {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

func logReport(report *allocator.Report) {
	for _, a := range report.Assignments() {
		log.Info().Str("requesterId", a.RequesterID).Str("resourceId", a.ResourceID).Msg("assigned")
	}
	for _, id := range report.Waitlist() {
		log.Info().Str("requesterId", id).Msg("waitlisted")
	}

	s := report.Stats()
	ev := log.Info().Str("runId", report.RunID).Int("total", s.Total).Int("allocated", s.Allocated).
		Int("waitlisted", s.Waitlisted).Int("preferenceMatches", s.PreferenceMatches).
		Int("occupied", s.TotalOccupied).Int("capacity", s.TotalCapacity)
	ev = withRate(ev, "successRate", s.SuccessRate)
	ev = withRate(ev, "utilization", s.Utilization)
	ev.Msg("allocation summary")
}

func withRate(ev *zerolog.Event, key string, rate func() (float64, error)) *zerolog.Event {
	v, err := rate()
	if errors.Is(err, allocator.ErrUndefinedRate) {
		return ev.Str(key, "N/A")
	}
	return ev.Float64(key, v)
}
