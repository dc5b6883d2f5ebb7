package config

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Counter names understood by the reconciler.
const (
	CounterTotalVerifications = "total_verifications"
	CounterTotalLicenses      = "total_licenses"
	CounterTotalRevenue       = "total_revenue"
	CounterTotalDownloads     = "total_downloads"
	CounterListingLicenses    = "license_count"
)

var AllCounters = []string{
	CounterTotalVerifications,
	CounterTotalLicenses,
	CounterTotalRevenue,
	CounterTotalDownloads,
	CounterListingLicenses,
}

// RulesConfig carries settings operators can change without a restart.
type RulesConfig struct {
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

type ReconcileConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	JobTimeout  time.Duration `mapstructure:"jobTimeout"`
	Parallelism int           `mapstructure:"parallelism"`
	Counters    []string      `mapstructure:"counters"`
}

type AuditConfig struct {
	MaskedFields []string `mapstructure:"maskedFields"`
}

func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		Reconcile: ReconcileConfig{
			Interval:    15 * time.Minute,
			JobTimeout:  2 * time.Minute,
			Parallelism: 2,
			Counters:    append([]string(nil), AllCounters...),
		},
		Audit: AuditConfig{
			MaskedFields: []string{"email", "destination_account"},
		},
	}
}

type RulesHolder struct {
	current atomic.Value // holds RulesConfig
}

// NewRulesHolder loads rules.yml from the configured path or the default search paths.
func NewRulesHolder(cfg Config) (*RulesHolder, error) {
	return NewRulesHolderFromPath(cfg.RulesConfigPath)
}

func NewRulesHolderFromPath(path string) (*RulesHolder, error) {
	v := viper.New()
	defaults := DefaultRulesConfig()
	v.SetDefault("reconcile.interval", defaults.Reconcile.Interval)
	v.SetDefault("reconcile.jobTimeout", defaults.Reconcile.JobTimeout)
	v.SetDefault("reconcile.parallelism", defaults.Reconcile.Parallelism)
	v.SetDefault("reconcile.counters", defaults.Reconcile.Counters)
	v.SetDefault("audit.maskedFields", defaults.Audit.MaskedFields)

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rules")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/actorhub")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ACTORHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	var cfg RulesConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateRulesConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RulesHolder{}
	holder.current.Store(cfg)

	if found {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated RulesConfig
			if err := v.Unmarshal(&updated); err != nil {
				log.Printf("[rules-config] reload failed: %v", err)
				return
			}
			if err := validateRulesConfig(updated); err != nil {
				log.Printf("[rules-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[rules-config] reloaded from %s", filepath.Base(e.Name))
		})
	}

	return holder, nil
}

// NewStaticRulesHolder wraps a fixed config, mostly for tests.
func NewStaticRulesHolder(cfg RulesConfig) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RulesHolder) Get() RulesConfig {
	return h.current.Load().(RulesConfig)
}

func validateRulesConfig(cfg RulesConfig) error {
	if cfg.Reconcile.Interval <= 0 {
		return errors.New("reconcile.interval must be positive")
	}
	if cfg.Reconcile.Parallelism < 1 {
		return errors.New("reconcile.parallelism must be at least 1")
	}
	for _, counter := range cfg.Reconcile.Counters {
		if !isKnownCounter(counter) {
			return fmt.Errorf("reconcile.counters: unknown counter %q", counter)
		}
	}
	return nil
}

func isKnownCounter(name string) bool {
	for _, known := range AllCounters {
		if known == name {
			return true
		}
	}
	return false
}
