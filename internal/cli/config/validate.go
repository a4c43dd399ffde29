package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/scenariowatch/internal/server"
	"github.com/leapstack-labs/scenariowatch/internal/watch"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(server.Strategies, c.Server) {
		return fmt.Errorf("invalid server %q (expected %s)", c.Server, strings.Join(server.Strategies, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxErrorNotify < 0 {
		return fmt.Errorf("max_error_notify must not be negative, got %d", c.MaxErrorNotify)
	}
	if len(c.ScenarioPaths) == 0 {
		return fmt.Errorf("scenario_paths is required")
	}
	if _, err := c.WatchRules(); err != nil {
		return err
	}
	return nil
}

// WatchRules compiles the configured watch rules.
func (c *Config) WatchRules() ([]watch.Rule, error) {
	rules := make([]watch.Rule, 0, len(c.Watch))
	for _, w := range c.Watch {
		r, err := watch.NewRule(w.Pattern, w.Target)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
