package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	var c Config
	c.Server.Port = 8080
	c.Database.DSN = "postgres://localhost:5432/curricula"
	c.Database.MaxConns = 25
	c.Database.MinConns = 5
	c.Tree.MaxDepth = 12
	c.Tree.MaxSubtreeFetch = 10000
	c.Log.Level = "info"
	return c
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero max conns", func(c *Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"min above max", func(c *Config) { c.Database.MinConns = 50 }, "database.min_conns"},
		{"zero tree depth", func(c *Config) { c.Tree.MaxDepth = 0 }, "tree.max_depth"},
		{"zero subtree fetch", func(c *Config) { c.Tree.MaxSubtreeFetch = 0 }, "tree.max_subtree_fetch"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tc.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.Log.Level = " WARN "
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
