package scheduler

import (
	"strings"
	"time"

	"github.com/actorhub/actorhub/internal/config"
)

// Config controls which jobs run and how often. A zero RunInterval follows the
// reconcile interval from the rules file.
type Config struct {
	RunInterval      time.Duration
	FallbackInterval time.Duration
	EnabledJobs      []string
}

func DefaultConfig() Config {
	return Config{
		FallbackInterval: 15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval < 0 {
		c.RunInterval = 0
	}
	if c.FallbackInterval <= 0 {
		c.FallbackInterval = defaults.FallbackInterval
	}
	return c
}

// ProvideConfig reads SCHEDULER_ENABLED_JOBS, a comma separated list of job names.
func ProvideConfig(cfg config.Config) Config {
	out := DefaultConfig()
	for _, job := range strings.Split(cfg.SchedulerEnabledJobs, ",") {
		if job = strings.TrimSpace(job); job != "" {
			out.EnabledJobs = append(out.EnabledJobs, job)
		}
	}
	return out
}
