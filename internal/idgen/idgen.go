// Package idgen provides the snowflake node used for audit and job run ids.
package idgen

import (
	"fmt"

	"github.com/actorhub/actorhub/internal/config"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("idgen",
	fx.Provide(NewNode),
)

func NewNode(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNodeID, err)
	}
	return node, nil
}
