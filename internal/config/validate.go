package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be >= 1 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("tree.max_depth must be >= 1 (got %d)", c.Tree.MaxDepth)
	}
	if c.Tree.MaxSubtreeFetch < 1 {
		return fmt.Errorf("tree.max_subtree_fetch must be >= 1 (got %d)", c.Tree.MaxSubtreeFetch)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug|info|warn|error (got %q)", c.Log.Level)
	}

	return nil
}
