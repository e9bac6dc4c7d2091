// Package config builds the single immutable Config value every other
// package receives explicitly at construction time, rather than reading
// environment variables or globals ad hoc throughout the codebase.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults match original_source/config/settings.py's SYSTEM_NAME,
// DEFAULT_MODEL, OLLAMA_BASE_URL, MAX_RETRIES, and EXECUTION_TIMEOUT.
const (
	defaultSystemName   = "Umbrasol"
	defaultModel        = "qwen2.5:3b"
	defaultBrainHost    = "http://localhost:11434"
	defaultMaxRetries   = 2
	defaultExecTimeout  = 60 * time.Second
	defaultMaxConcTasks = 4
	defaultMaxResume    = 10
	defaultHeuristicLen = 5 // words; only requests shorter than this try the heuristic layer
	defaultSentenceWords = 8
	defaultHealthPeriod = 30 * time.Second
)

// Config is built once at startup and passed explicitly to every
// constructor — see SPEC_FULL.md §3.2 "Ambient process-wide state".
type Config struct {
	SystemName string

	CacheDir string // ~/.cache/umbrasol by default
	LogDir   string
	DBPath   string

	BrainHost  string
	BrainModel string

	MaxRetries          int
	ExecutionTimeout    time.Duration
	MaxConcurrentTasks  int
	MaxTaskResume       int
	HeuristicWordLimit  int
	SentenceBufferWords int
	HealthCheckInterval time.Duration

	BochaAPIKey string // optional; Internet collaborator degrades gracefully without it
}

// Load reads .env (if present) then the environment, filling in defaults
// from original_source/config/settings.py where a variable is unset.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cacheDir := envOr("UMBRASOL_CACHE_DIR", filepath.Join(home, ".cache", "umbrasol"))
	logDir := envOr("UMBRASOL_LOG_DIR", filepath.Join(cacheDir, "logs"))

	cfg := Config{
		SystemName:          envOr("UMBRASOL_SYSTEM_NAME", defaultSystemName),
		CacheDir:            cacheDir,
		LogDir:              logDir,
		DBPath:              envOr("UMBRASOL_DB_PATH", filepath.Join(cacheDir, "memory", "umbrasol.db")),
		BrainHost:           envOr("UMBRASOL_BRAIN_HOST", defaultBrainHost),
		BrainModel:          envOr("UMBRASOL_BRAIN_MODEL", defaultModel),
		MaxRetries:          envInt("UMBRASOL_MAX_RETRIES", defaultMaxRetries),
		ExecutionTimeout:    envDuration("UMBRASOL_EXEC_TIMEOUT_SEC", defaultExecTimeout),
		MaxConcurrentTasks:  envInt("UMBRASOL_MAX_CONCURRENT_TASKS", defaultMaxConcTasks),
		MaxTaskResume:       envInt("UMBRASOL_MAX_TASK_RESUME", defaultMaxResume),
		HeuristicWordLimit:  envInt("UMBRASOL_HEURISTIC_WORD_LIMIT", defaultHeuristicLen),
		SentenceBufferWords: envInt("UMBRASOL_SENTENCE_BUFFER_WORDS", defaultSentenceWords),
		HealthCheckInterval: envDuration("UMBRASOL_HEALTH_CHECK_INTERVAL_SEC", defaultHealthPeriod),
		BochaAPIKey:         os.Getenv("BOCHA_API_KEY"),
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(filepath.Join(cfg.LogDir, "tasks"), 0o755); err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(secs) * time.Second
}
