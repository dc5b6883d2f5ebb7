package reconcile

import (
	"testing"

	"github.com/actorhub/actorhub/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestTableGroupsSerializeCountersOnTheSameTable(t *testing.T) {
	names := []string{
		config.CounterTotalVerifications,
		config.CounterTotalDownloads,
		config.CounterTotalLicenses,
		config.CounterListingLicenses,
		config.CounterTotalRevenue,
	}

	groups := tableGroups(names)

	assert.Equal(t, [][]int{{0, 2, 4}, {1}, {3}}, groups)
}

func TestTableGroupsIsolateUnknownCounters(t *testing.T) {
	groups := tableGroups([]string{"bogus", config.CounterTotalDownloads, "bogus2"})

	assert.Equal(t, [][]int{{0}, {1}, {2}}, groups)
}
