package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Adarshprakash123/aui-interview/internal/config"
	"github.com/Adarshprakash123/aui-interview/internal/httpserver"
	"github.com/Adarshprakash123/aui-interview/internal/interview"
	"github.com/Adarshprakash123/aui-interview/internal/llm"
	"github.com/Adarshprakash123/aui-interview/internal/resume"
	"github.com/Adarshprakash123/aui-interview/internal/storage"
	"github.com/Adarshprakash123/aui-interview/internal/store"
	"github.com/Adarshprakash123/aui-interview/internal/stt"
	"github.com/Adarshprakash123/aui-interview/internal/token"
	"github.com/Adarshprakash123/aui-interview/internal/tts"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000000"})

	cfg := config.Load()

	var sessions interview.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
		}
		sessions = store.NewRedis(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	} else {
		sessions = store.NewMemory()
		log.Info().Msg("using in-memory session store")
	}

	generator := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIChatModel)
	transcriber := stt.NewWhisperClient(cfg.OpenAIKey, cfg.OpenAISTTModel)

	var synthesizer interview.Synthesizer
	if cfg.TTSProvider == "elevenlabs" {
		synthesizer = tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
	} else {
		synthesizer = tts.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAITTSModel, cfg.OpenAITTSVoice)
	}

	var uploader storage.Uploader
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		uploader = storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseResumeBucket)
	}

	events := interview.NewEvents()
	orchestrator := interview.NewOrchestrator(sessions, transcriber, generator, synthesizer, events)
	resumeService := resume.NewService(generator, sessions, uploader)
	issuer := token.NewLiveKitIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret)

	handlers := httpserver.NewHandlers(orchestrator, resumeService, issuer, events, cfg.LiveKitURL)
	e := httpserver.New(cfg, handlers)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddress).Msg("server listening")
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = server.Close()
	}
}
