package daybook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	LogLevel    string
	LogPath     string
	Port        string

	LLMAPIURL  string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	SweepInterval   time.Duration
	SweepGrace      time.Duration
	ConversationTTL time.Duration

	// client
	ServerURL string
	User      string
}

const (
	KeyDatabaseURL     = "DAYBOOK_DB_URL"
	KeyLogLevel        = "DAYBOOK_LOG_LEVEL"
	KeyLogPath         = "DAYBOOK_LOG_PATH"
	KeyPort            = "DAYBOOK_PORT"
	KeyLLMAPIURL       = "DAYBOOK_LLM_API_URL"
	KeyLLMAPIKey       = "DAYBOOK_LLM_API_KEY"
	KeyLLMModel        = "DAYBOOK_LLM_MODEL"
	KeyLLMTimeout      = "DAYBOOK_LLM_TIMEOUT"
	KeySweepInterval   = "DAYBOOK_SWEEP_INTERVAL"
	KeySweepGrace      = "DAYBOOK_SWEEP_GRACE"
	KeyConversationTTL = "DAYBOOK_CONVERSATION_TTL"
	KeyServerURL       = "DAYBOOK_SERVER_URL"
	KeyUser            = "DAYBOOK_USER"
	KeyDevMode         = "DAYBOOK_DEV_MODE"
)

const (
	DefaultLogLevel        = "INFO"
	DefaultPort            = "5000"
	DefaultLLMAPIURL       = "https://api.groq.com/openai/v1/chat/completions"
	DefaultLLMModel        = "llama-3.3-70b-versatile"
	DefaultLLMTimeout      = "10s"
	DefaultSweepInterval   = "10s"
	DefaultSweepGrace      = "30s"
	DefaultConversationTTL = "15m"
	DefaultServerURL       = "http://localhost:5000"
)

var (
	userHome, _        = os.UserHomeDir()
	DefaultDatabaseURL = path.Join(userHome, ".daybook", "daybook.db")
	DefaultLogPath     = path.Join(userHome, ".daybook", "daybook.log")
	DefaultConfigPath  = path.Join(userHome, ".daybook", "daybook.conf")
)

// LoadConfig resolves every setting from the environment first, then the
// dotenv file at confFile (if it exists), then the defaults.
func LoadConfig(confFile string) (Config, error) {
	fromFile := map[string]string{}
	if confFile != "" {
		vals, err := godotenv.Read(confFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", confFile, err)
		}
		if vals != nil {
			fromFile = vals
		}
	}

	get := func(key, def string) string {
		return coalesce(os.Getenv(key), fromFile[key], def)
	}

	conf := Config{
		DatabaseURL: get(KeyDatabaseURL, DefaultDatabaseURL),
		LogLevel:    get(KeyLogLevel, DefaultLogLevel),
		LogPath:     get(KeyLogPath, ""),
		Port:        get(KeyPort, DefaultPort),
		LLMAPIURL:   get(KeyLLMAPIURL, DefaultLLMAPIURL),
		LLMAPIKey:   get(KeyLLMAPIKey, ""),
		LLMModel:    get(KeyLLMModel, DefaultLLMModel),
		ServerURL:   get(KeyServerURL, DefaultServerURL),
		User:        get(KeyUser, os.Getenv("USER")),
	}

	if get(KeyDevMode, "") != "" {
		conf.LogLevel = "DEBUG"
		conf.DatabaseURL = path.Join(os.TempDir(), "daybook-dev.db")
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{KeyLLMTimeout, DefaultLLMTimeout, &conf.LLMTimeout},
		{KeySweepInterval, DefaultSweepInterval, &conf.SweepInterval},
		{KeySweepGrace, DefaultSweepGrace, &conf.SweepGrace},
		{KeyConversationTTL, DefaultConversationTTL, &conf.ConversationTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(get(d.key, d.def))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		if v <= 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %s", d.key, v)
		}
		*d.dst = v
	}

	return conf, nil
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}
