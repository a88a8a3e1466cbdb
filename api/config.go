package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration of the REST server
type Config struct {
	// Endpoint is the address the REST server listens on (host:port)
	Endpoint string
	// ShardID is the shard whose shop is exposed
	ShardID uint64
	// AdminUsers are usernames that get the admin role on registration
	AdminUsers []string
	// SessionTTL is the lifetime of an unused session
	SessionTTL time.Duration
	// SessionCheckPeriod is how often expired sessions are removed
	SessionCheckPeriod time.Duration
}

// withDefaults returns a copy of the config with unset durations filled in
func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.SessionCheckPeriod <= 0 {
		c.SessionCheckPeriod = time.Minute
	}
	return c
}

// isAdminUser reports whether username is listed in AdminUsers
func (c *Config) isAdminUser(username string) bool {
	for _, admin := range c.AdminUsers {
		if strings.EqualFold(strings.TrimSpace(admin), username) {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("REST API")
	addField("Endpoint", c.Endpoint)
	addField("Shard", strconv.FormatUint(c.ShardID, 10))
	addField("Session TTL", c.SessionTTL.String())
	if len(c.AdminUsers) > 0 {
		addField("Admin Users", strings.Join(c.AdminUsers, ", "))
	}

	return sb.String()
}
