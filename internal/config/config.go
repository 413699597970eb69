package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	FrontendURL string

	OpenAIKey       string
	OpenAIChatModel string
	OpenAISTTModel  string
	OpenAITTSModel  string
	OpenAITTSVoice  string

	TTSProvider       string
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	RedisAddr     string
	RedisPassword string

	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitURL       string

	SupabaseURL          string
	SupabaseServiceKey   string
	SupabaseResumeBucket string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

	cfg := Config{
		HTTPAddress: getenv("HTTP_ADDRESS", ":8080"),
		FrontendURL: os.Getenv("FRONTEND_URL"),

		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIChatModel: getenv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAISTTModel:  getenv("OPENAI_STT_MODEL", "whisper-1"),
		OpenAITTSModel:  getenv("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:  getenv("OPENAI_TTS_VOICE", "nova"),

		TTSProvider:       getenv("TTS_PROVIDER", "openai"),
		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LiveKitAPIKey:    os.Getenv("LIVEKIT_API_KEY"),
		LiveKitAPISecret: os.Getenv("LIVEKIT_API_SECRET"),
		LiveKitURL:       os.Getenv("LIVEKIT_URL"),

		SupabaseURL:          os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey:   os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseResumeBucket: getenv("SUPABASE_RESUME_BUCKET", "resumes"),
	}

	if cfg.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set - transcription, generation and synthesis will not work")
	}
	if cfg.TTSProvider == "elevenlabs" && cfg.ElevenLabsKey == "" {
		log.Warn().Msg("ELEVENLABS_API_KEY not set - TTS will not work")
	}
	if cfg.LiveKitAPIKey == "" || cfg.LiveKitAPISecret == "" {
		log.Warn().Msg("LiveKit credentials not set - video room tokens will not be issued")
	}
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set - sessions are kept in memory and lost on restart")
	}

	log.Info().Str("http_address", cfg.HTTPAddress).Str("tts_provider", cfg.TTSProvider).Msg("config loaded")
	return cfg
}
