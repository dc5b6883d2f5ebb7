package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesHolderDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewRulesHolderFromPath("")
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, 2, cfg.Reconcile.Parallelism)
	assert.ElementsMatch(t, AllCounters, cfg.Reconcile.Counters)
	assert.Contains(t, cfg.Audit.MaskedFields, "email")
}

func TestRulesHolderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	content := []byte(`reconcile:
  interval: 5m
  parallelism: 4
  counters:
    - total_revenue
audit:
  maskedFields:
    - destination_account
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := NewRulesHolderFromPath(path)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, 4, cfg.Reconcile.Parallelism)
	assert.Equal(t, []string{CounterTotalRevenue}, cfg.Reconcile.Counters)
	assert.Equal(t, []string{"destination_account"}, cfg.Audit.MaskedFields)
}

func TestRulesHolderRejectsUnknownCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("reconcile:\n  counters:\n    - bogus\n"), 0o600))

	_, err := NewRulesHolderFromPath(path)
	assert.Error(t, err)
}
