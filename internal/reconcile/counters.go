package reconcile

import (
	"fmt"

	"github.com/actorhub/actorhub/internal/config"
)

// counter describes how one denormalized column is recomputed from the fact
// tables. expected is a scalar subquery correlated on <table>.id.
type counter struct {
	name     string
	table    string
	column   string
	expected string
	money    bool
	audited  bool
}

var counters = map[string]counter{
	config.CounterTotalVerifications: {
		name:   config.CounterTotalVerifications,
		table:  "identities",
		column: "total_verifications",
		expected: `SELECT COUNT(*) FROM usage_logs u
			WHERE u.identity_id = identities.id AND u.action = 'verify' AND u.matched = TRUE`,
		audited: true,
	},
	config.CounterTotalLicenses: {
		name:     config.CounterTotalLicenses,
		table:    "identities",
		column:   "total_licenses",
		expected: `SELECT COUNT(*) FROM licenses l WHERE l.identity_id = identities.id`,
		audited:  true,
	},
	config.CounterTotalRevenue: {
		name:   config.CounterTotalRevenue,
		table:  "identities",
		column: "total_revenue",
		expected: `SELECT COALESCE(SUM(COALESCE(l.creator_payout_usd, 0)), 0) FROM licenses l
			WHERE l.identity_id = identities.id AND l.payment_status = 'COMPLETED'`,
		money:   true,
		audited: true,
	},
	config.CounterTotalDownloads: {
		name:   config.CounterTotalDownloads,
		table:  "actor_packs",
		column: "total_downloads",
		expected: `SELECT COUNT(*) FROM usage_logs u
			WHERE u.actor_pack_id = actor_packs.id AND u.action = 'download'`,
	},
	config.CounterListingLicenses: {
		name:     config.CounterListingLicenses,
		table:    "listings",
		column:   "license_count",
		expected: `SELECT COUNT(*) FROM licenses l WHERE l.listing_id = listings.id`,
	},
}

func lookup(name string) (counter, error) {
	c, ok := counters[name]
	if !ok {
		return counter{}, fmt.Errorf("%w: %q", ErrUnknownCounter, name)
	}
	return c, nil
}

// differs is true where the stored value disagrees with the recomputation.
// Money is compared at cent precision.
func (c counter) differs() string {
	if c.money {
		return fmt.Sprintf("ROUND(%s, 2) <> ROUND((%s), 2)", c.column, c.expected)
	}
	return fmt.Sprintf("%s <> (%s)", c.column, c.expected)
}

func (c counter) detectSQL() string {
	return fmt.Sprintf(
		"SELECT id AS entity_id, %s AS stored, (%s) AS expected FROM %s WHERE %s ORDER BY id",
		c.column, c.expected, c.table, c.differs(),
	)
}

func (c counter) correctSQL() string {
	return fmt.Sprintf(
		"UPDATE %s SET %s = (%s) WHERE %s",
		c.table, c.column, c.expected, c.differs(),
	)
}
