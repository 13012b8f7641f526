package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/debate-lobby-backend/internal/engine"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Addr        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	TopicsPath  string
	// AllowedOrigins are websocket origin patterns, e.g. "localhost:*". Empty means same-origin only.
	AllowedOrigins []string

	VotingSeconds       int
	VoteResultsSeconds  int
	SoloSeconds         int
	DiscussionSeconds   int
	RevotingSeconds     int
	RoundResultsSeconds int
	ScoreboardSeconds   int
	WaitingSeconds      int
	SettleSeconds       int
	RestartSeconds      int
	MaxRounds           int
	MinPlayers          int

	TickInterval  time.Duration
	GraceWindow   time.Duration
	SweepInterval time.Duration
}

func Default() Config {
	rules := engine.DefaultRules()
	return Config{
		Addr:                ":8080",
		LogLevel:            "info",
		LogFormat:           "json",
		VotingSeconds:       rules.VotingSec,
		VoteResultsSeconds:  rules.VoteResultsSec,
		SoloSeconds:         rules.SoloSec,
		DiscussionSeconds:   rules.DiscussionSec,
		RevotingSeconds:     rules.RevotingSec,
		RoundResultsSeconds: rules.RoundResultsSec,
		ScoreboardSeconds:   rules.ScoreboardSec,
		WaitingSeconds:      rules.WaitingSec,
		SettleSeconds:       rules.SettleSec,
		RestartSeconds:      rules.RestartSec,
		MaxRounds:           rules.MaxRounds,
		MinPlayers:          rules.MinPlayers,
		TickInterval:        time.Second,
		GraceWindow:         5 * time.Minute,
		SweepInterval:       time.Minute,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	} else if raw := os.Getenv("PORT"); raw != "" {
		cfg.Addr = ":" + raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("TOPICS_PATH"); raw != "" {
		cfg.TopicsPath = raw
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	seconds := []struct {
		key    string
		target *int
	}{
		{"VOTING_SECONDS", &cfg.VotingSeconds},
		{"VOTE_RESULTS_SECONDS", &cfg.VoteResultsSeconds},
		{"SOLO_SECONDS", &cfg.SoloSeconds},
		{"DISCUSSION_SECONDS", &cfg.DiscussionSeconds},
		{"REVOTING_SECONDS", &cfg.RevotingSeconds},
		{"ROUND_RESULTS_SECONDS", &cfg.RoundResultsSeconds},
		{"SCOREBOARD_SECONDS", &cfg.ScoreboardSeconds},
		{"WAITING_SECONDS", &cfg.WaitingSeconds},
		{"SETTLE_SECONDS", &cfg.SettleSeconds},
		{"RESTART_SECONDS", &cfg.RestartSeconds},
	}
	for _, s := range seconds {
		if raw := os.Getenv(s.key); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
				*s.target = value
			}
		}
	}
	if raw := os.Getenv("MAX_ROUNDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxRounds = value
		}
	}
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("TICK_INTERVAL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.TickInterval = value
		}
	}
	if raw := os.Getenv("GRACE_WINDOW"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.GraceWindow = value
		}
	}
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil && value > 0 {
			cfg.SweepInterval = value
		}
	}
	return cfg
}

func (c Config) Rules() engine.Rules {
	return engine.Rules{
		VotingSec:       c.VotingSeconds,
		VoteResultsSec:  c.VoteResultsSeconds,
		SoloSec:         c.SoloSeconds,
		DiscussionSec:   c.DiscussionSeconds,
		RevotingSec:     c.RevotingSeconds,
		RoundResultsSec: c.RoundResultsSeconds,
		ScoreboardSec:   c.ScoreboardSeconds,
		WaitingSec:      c.WaitingSeconds,
		SettleSec:       c.SettleSeconds,
		RestartSec:      c.RestartSeconds,
		MaxRounds:       c.MaxRounds,
		MinPlayers:      c.MinPlayers,
	}
}
