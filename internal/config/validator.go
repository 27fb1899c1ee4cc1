package config

import (
	"fmt"
	"strings"
)

// Formats the CLI can render.
var Formats = []string{"text", "json", "yaml", "csv", "openvex"}

// IDSources the CLI can allocate entry ids from.
var IDSources = []string{"database", "counter"}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if !contains(Formats, c.Format) {
		problems = append(problems, fmt.Sprintf("format must be one of %s, got: %q", strings.Join(Formats, ", "), c.Format))
	}
	if !contains(IDSources, c.IDSource) {
		problems = append(problems, fmt.Sprintf("id_source must be one of %s, got: %q", strings.Join(IDSources, ", "), c.IDSource))
	}
	if c.IDSource == "database" && strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "db_path must be set when id_source is database")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
