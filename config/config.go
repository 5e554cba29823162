// Package config loads helios configuration from YAML, .env and environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/helios/internal/clients"
	"github.com/vadiminshakov/helios/internal/domain"
)

const (
	BackendSupabase = clients.BackendSupabase
	BackendPostgres = clients.BackendPostgres
	BackendStatic   = clients.BackendStatic

	// MinWidgetInterval and MaxWidgetInterval bound every widget refresh interval.
	MinWidgetInterval = 10 * time.Second
	MaxWidgetInterval = 25 * time.Second

	defaultSyncSchedule     = "@every 30s"
	defaultSnapshotSchedule = "@every 5m"
	defaultWebAddr          = ":8080"
	defaultWALDir           = "./wal/balance"
	defaultStateDir         = "./wal/session"
	defaultFeedCapacity     = 512
	defaultKafkaTopic       = "funding_events"
	defaultKafkaGroup       = "helios-funding"
)

// Environment overrides.
const (
	EnvSupabaseURL  = "HELIOS_SUPABASE_URL"
	EnvSupabaseKey  = "HELIOS_SUPABASE_KEY"
	EnvPostgresDSN  = "HELIOS_POSTGRES_DSN"
	EnvWebAddr      = "HELIOS_WEB_ADDR"
	EnvKafkaBrokers = "HELIOS_KAFKA_BROKERS"
)

// DefaultWidgetIntervals refresh cadence per widget.
var DefaultWidgetIntervals = map[domain.MetricKind]time.Duration{
	domain.MetricKindPerformance:       15 * time.Second,
	domain.MetricKindRisk:              20 * time.Second,
	domain.MetricKindFactorAttribution: 25 * time.Second,
	domain.MetricKindSectorExposure:    20 * time.Second,
	domain.MetricKindAIInsights:        10 * time.Second,
	domain.MetricKindAllocation:        18 * time.Second,
	domain.MetricKindPortfolio:         10 * time.Second,
}

// Config typed runtime configuration.
type Config struct {
	LogLevel string

	Backend            BackendConfig
	DocumentsCompleted bool

	WALDir           string
	StateDir         string
	SnapshotSchedule string
	FeedCapacity     int

	WidgetIntervals map[domain.MetricKind]time.Duration
	Period          domain.Period
	View            domain.ExposureView

	Web   WebConfig
	Kafka KafkaConfig
}

// BackendConfig where the account is synced from.
type BackendConfig struct {
	Type         string
	UserID       string
	SupabaseURL  string
	SupabaseKey  string
	PostgresDSN  string
	SyncSchedule string
	// Static backend account.
	StaticAccount domain.Account
}

// WebConfig dashboard HTTP server.
type WebConfig struct {
	Addr       string
	TLSDomains []string
	CertCache  string
}

// KafkaConfig funding events consumer; disabled without brokers.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether the consumer should run.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// ConfigTmp YAML layout. Numbers and durations are strings so errors name the offending key.
type ConfigTmp struct {
	LogLevel           string            `yaml:"log_level,omitempty"`
	Backend            BackendTmp        `yaml:"backend"`
	DocumentsCompleted bool              `yaml:"documents_completed"`
	WALDir             string            `yaml:"wal_dir,omitempty"`
	StateDir           string            `yaml:"state_dir,omitempty"`
	SnapshotSchedule   string            `yaml:"snapshot_schedule,omitempty"`
	FeedCapacity       int               `yaml:"feed_capacity,omitempty"`
	Widgets            map[string]string `yaml:"widgets,omitempty"`
	Period             string            `yaml:"period,omitempty"`
	View               string            `yaml:"view,omitempty"`
	Web                WebTmp            `yaml:"web,omitempty"`
	Kafka              KafkaTmp          `yaml:"kafka,omitempty"`
}

type BackendTmp struct {
	Type             string `yaml:"type"`
	UserID           string `yaml:"user_id,omitempty"`
	SupabaseURL      string `yaml:"supabase_url,omitempty"`
	SupabaseKey      string `yaml:"supabase_key,omitempty"`
	PostgresDSN      string `yaml:"postgres_dsn,omitempty"`
	SyncSchedule     string `yaml:"sync_schedule,omitempty"`
	Balance          string `yaml:"balance,omitempty"`
	AvailableBalance string `yaml:"available_balance,omitempty"`
	Currency         string `yaml:"currency,omitempty"`
}

type WebTmp struct {
	Addr       string   `yaml:"addr,omitempty"`
	TLSDomains []string `yaml:"tls_domains,omitempty"`
	CertCache  string   `yaml:"cert_cache,omitempty"`
}

type KafkaTmp struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
	GroupID string   `yaml:"group_id,omitempty"`
}

// Get parses command-line flags and loads the configuration they point to.
func Get() (Config, Flags, error) {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		return Config{}, Flags{}, err
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := Load(flags.ConfigPath)
	if err != nil {
		return Config{}, flags, err
	}
	return cfg, flags, nil
}

// Load reads YAML at path (defaults only when path is empty), applies env overrides and validates.
func Load(path string) (Config, error) {
	var tmp ConfigTmp
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "parse yaml config")
		}
	}

	applyEnv(&tmp)

	cfg, err := tmp.toConfig()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(tmp *ConfigTmp) {
	if v := os.Getenv(EnvSupabaseURL); v != "" {
		tmp.Backend.SupabaseURL = v
	}
	if v := os.Getenv(EnvSupabaseKey); v != "" {
		tmp.Backend.SupabaseKey = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		tmp.Backend.PostgresDSN = v
	}
	if v := os.Getenv(EnvWebAddr); v != "" {
		tmp.Web.Addr = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		tmp.Kafka.Brokers = splitList(v)
	}
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Config{
		LogLevel:           orDefault(c.LogLevel, "info"),
		DocumentsCompleted: c.DocumentsCompleted,
		WALDir:             orDefault(c.WALDir, defaultWALDir),
		StateDir:           orDefault(c.StateDir, defaultStateDir),
		SnapshotSchedule:   orDefault(c.SnapshotSchedule, defaultSnapshotSchedule),
		FeedCapacity:       c.FeedCapacity,
		Web: WebConfig{
			Addr:       orDefault(c.Web.Addr, defaultWebAddr),
			TLSDomains: c.Web.TLSDomains,
			CertCache:  c.Web.CertCache,
		},
		Kafka: KafkaConfig{
			Brokers: c.Kafka.Brokers,
			Topic:   orDefault(c.Kafka.Topic, defaultKafkaTopic),
			GroupID: orDefault(c.Kafka.GroupID, defaultKafkaGroup),
		},
	}
	if cfg.FeedCapacity <= 0 {
		cfg.FeedCapacity = defaultFeedCapacity
	}

	backend, err := c.Backend.toConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.Backend = backend

	if cfg.Period, err = domain.ParsePeriod(c.Period); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'period' param in yaml config")
	}
	if cfg.View, err = domain.ParseExposureView(c.View); err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'view' param in yaml config")
	}

	cfg.WidgetIntervals = make(map[domain.MetricKind]time.Duration, len(DefaultWidgetIntervals))
	for kind, d := range DefaultWidgetIntervals {
		cfg.WidgetIntervals[kind] = d
	}
	for name, raw := range c.Widgets {
		kind, err := domain.ParseMetricKind(name)
		if err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'widgets' key in yaml config")
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect interval for widget %s (correct format is 15s)", kind)
		}
		cfg.WidgetIntervals[kind] = d
	}

	return cfg, nil
}

func (b BackendTmp) toConfig() (BackendConfig, error) {
	cfg := BackendConfig{
		Type:         strings.ToLower(orDefault(b.Type, BackendStatic)),
		UserID:       b.UserID,
		SupabaseURL:  b.SupabaseURL,
		SupabaseKey:  b.SupabaseKey,
		PostgresDSN:  b.PostgresDSN,
		SyncSchedule: orDefault(b.SyncSchedule, defaultSyncSchedule),
	}

	balance, err := parseAmount(b.Balance)
	if err != nil {
		return BackendConfig{}, errors.Wrap(err, "incorrect 'backend.balance' param in yaml config")
	}
	available := balance
	if b.AvailableBalance != "" {
		if available, err = parseAmount(b.AvailableBalance); err != nil {
			return BackendConfig{}, errors.Wrap(err, "incorrect 'backend.available_balance' param in yaml config")
		}
	}

	cfg.StaticAccount = domain.Account{
		Balance:          balance,
		AvailableBalance: available,
		TotalDeposits:    balance,
		TotalWithdrawals: decimal.Zero,
		Currency:         strings.ToUpper(orDefault(b.Currency, domain.DefaultCurrency)),
		Status:           domain.AccountStatusActive,
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	for kind, d := range c.WidgetIntervals {
		if d < MinWidgetInterval || d > MaxWidgetInterval {
			return fmt.Errorf("widget %s interval %s is outside [%s, %s]", kind, d, MinWidgetInterval, MaxWidgetInterval)
		}
	}

	switch c.Backend.Type {
	case BackendSupabase:
		if c.Backend.SupabaseURL == "" || c.Backend.SupabaseKey == "" {
			return fmt.Errorf("supabase backend requires supabase_url and supabase_key (or %s / %s)", EnvSupabaseURL, EnvSupabaseKey)
		}
		if c.Backend.UserID == "" {
			return fmt.Errorf("supabase backend requires user_id")
		}
	case BackendPostgres:
		if c.Backend.PostgresDSN == "" {
			return fmt.Errorf("postgres backend requires postgres_dsn (or %s)", EnvPostgresDSN)
		}
		if c.Backend.UserID == "" {
			return fmt.Errorf("postgres backend requires user_id")
		}
	case BackendStatic:
	default:
		return fmt.Errorf("unsupported backend type %q", c.Backend.Type)
	}

	if _, err := cron.ParseStandard(c.Backend.SyncSchedule); err != nil {
		return errors.Wrapf(err, "invalid backend.sync_schedule %q", c.Backend.SyncSchedule)
	}
	if _, err := cron.ParseStandard(c.SnapshotSchedule); err != nil {
		return errors.Wrapf(err, "invalid snapshot_schedule %q", c.SnapshotSchedule)
	}

	return nil
}

// ToTmp converts a typed config back to its YAML layout.
func (c Config) ToTmp() ConfigTmp {
	widgets := make(map[string]string, len(c.WidgetIntervals))
	for kind, d := range c.WidgetIntervals {
		widgets[kind.String()] = d.String()
	}

	return ConfigTmp{
		LogLevel:           c.LogLevel,
		DocumentsCompleted: c.DocumentsCompleted,
		WALDir:             c.WALDir,
		StateDir:           c.StateDir,
		SnapshotSchedule:   c.SnapshotSchedule,
		FeedCapacity:       c.FeedCapacity,
		Widgets:            widgets,
		Period:             c.Period.String(),
		View:               string(c.View),
		Backend: BackendTmp{
			Type:             c.Backend.Type,
			UserID:           c.Backend.UserID,
			SupabaseURL:      c.Backend.SupabaseURL,
			SupabaseKey:      c.Backend.SupabaseKey,
			PostgresDSN:      c.Backend.PostgresDSN,
			SyncSchedule:     c.Backend.SyncSchedule,
			Balance:          c.Backend.StaticAccount.Balance.String(),
			AvailableBalance: c.Backend.StaticAccount.AvailableBalance.String(),
			Currency:         c.Backend.StaticAccount.Currency,
		},
		Web: WebTmp{
			Addr:       c.Web.Addr,
			TLSDomains: c.Web.TLSDomains,
			CertCache:  c.Web.CertCache,
		},
		Kafka: KafkaTmp{
			Brokers: c.Kafka.Brokers,
			Topic:   c.Kafka.Topic,
			GroupID: c.Kafka.GroupID,
		},
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative, got %s", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
