package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Queue         QueueConfig         `yaml:"queue"`
	Matchmaking   MatchmakingConfig   `yaml:"matchmaking"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL runs the in-memory bus.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// JWTConfig holds the admin token settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// HTTPConfig holds the admin API listener settings.
type HTTPConfig struct {
	Address           string  `yaml:"address"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// QueueConfig holds River settings.
type QueueConfig struct {
	MaxWorkers         int           `yaml:"max_workers"`
	RotationInterval   time.Duration `yaml:"rotation_interval"`
	RunRotationOnStart bool          `yaml:"run_rotation_on_start"`
}

// MatchmakingConfig holds the league knobs.
type MatchmakingConfig struct {
	RecentOpponentWindow int           `yaml:"recent_opponent_window"`
	DemotionWindow       time.Duration `yaml:"demotion_window"`
	ScheduleLead         time.Duration `yaml:"schedule_lead"`
	MaxScheduleOffset    time.Duration `yaml:"max_schedule_offset"`
	RotationAge          time.Duration `yaml:"rotation_age"`
	PendingExpiry        time.Duration `yaml:"pending_expiry"`
	RematchExpiry        time.Duration `yaml:"rematch_expiry"`
	SparringWindow       time.Duration `yaml:"sparring_window"`
	SparringCap          int           `yaml:"sparring_cap"`
	UpcomingBoutWindow   time.Duration `yaml:"upcoming_bout_window"`

	Policy PolicyConfig `yaml:"policy"`
}

// PolicyConfig overrides the fairness policy for mandatory and manual pairings.
type PolicyConfig struct {
	MaxRankDiff               int     `yaml:"max_rank_diff"`
	MaxPointsDiff             int     `yaml:"max_points_diff"`
	RequireSameTier           bool    `yaml:"require_same_tier"`
	RequireSameWeightClass    bool    `yaml:"require_same_weight_class"`
	RequireTimezoneOverlap    bool    `yaml:"require_timezone_overlap"`
	TimezoneOverlapHours      float64 `yaml:"timezone_overlap_hours"`
	PointsGapConsentThreshold int     `yaml:"points_gap_consent_threshold"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
}

// Default returns the league defaults. Values set in the file or environment replace them.
func Default() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:     "bout-league",
			DefaultTTL: 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Address:           ":8080",
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Queue: QueueConfig{
			MaxWorkers:       10,
			RotationInterval: 7 * 24 * time.Hour,
		},
		Matchmaking: MatchmakingConfig{
			RecentOpponentWindow: 5,
			DemotionWindow:       30 * 24 * time.Hour,
			ScheduleLead:         7 * 24 * time.Hour,
			MaxScheduleOffset:    12 * time.Hour,
			RotationAge:          7 * 24 * time.Hour,
			PendingExpiry:        72 * time.Hour,
			RematchExpiry:        72 * time.Hour,
			SparringWindow:       72 * time.Hour,
			SparringCap:          3,
			UpcomingBoutWindow:   3 * 24 * time.Hour,
			Policy: PolicyConfig{
				MaxRankDiff:               3,
				MaxPointsDiff:             30,
				RequireSameTier:           true,
				RequireSameWeightClass:    true,
				RequireTimezoneOverlap:    true,
				TimezoneOverlapHours:      6,
				PointsGapConsentThreshold: 20,
			},
		},
		Observability: ObservabilityConfig{
			Environment: "development",
			LogLevel:    "info",
		},
	}
}

// LoadConfig loads the configuration from a YAML file. When the file cannot
// be read, configuration comes from the environment alone and DATABASE_URL
// becomes mandatory.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if err := applyEnv(&cfg); err != nil {
			return nil, err
		}
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
		return &cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		cfg.Observability.TracingEnabled = v == "true"
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"JWT_DEFAULT_TTL", &cfg.JWT.DefaultTTL},
		{"QUEUE_ROTATION_INTERVAL", &cfg.Queue.RotationInterval},
		{"MATCHMAKING_DEMOTION_WINDOW", &cfg.Matchmaking.DemotionWindow},
		{"MATCHMAKING_SCHEDULE_LEAD", &cfg.Matchmaking.ScheduleLead},
		{"MATCHMAKING_MAX_SCHEDULE_OFFSET", &cfg.Matchmaking.MaxScheduleOffset},
		{"MATCHMAKING_ROTATION_AGE", &cfg.Matchmaking.RotationAge},
		{"MATCHMAKING_PENDING_EXPIRY", &cfg.Matchmaking.PendingExpiry},
		{"MATCHMAKING_REMATCH_EXPIRY", &cfg.Matchmaking.RematchExpiry},
		{"MATCHMAKING_SPARRING_WINDOW", &cfg.Matchmaking.SparringWindow},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", d.env, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"QUEUE_MAX_WORKERS", &cfg.Queue.MaxWorkers},
		{"MATCHMAKING_RECENT_OPPONENT_WINDOW", &cfg.Matchmaking.RecentOpponentWindow},
		{"MATCHMAKING_SPARRING_CAP", &cfg.Matchmaking.SparringCap},
		{"MATCHMAKING_MAX_RANK_DIFF", &cfg.Matchmaking.Policy.MaxRankDiff},
		{"MATCHMAKING_MAX_POINTS_DIFF", &cfg.Matchmaking.Policy.MaxPointsDiff},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", i.env, err)
		}
		*i.dst = parsed
	}

	return nil
}
