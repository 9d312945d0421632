package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Mirror is an optional shared cache layer for school lookups, so that
// repeated discovery passes across hosts skip the per-player biography
// probes. Implemented by the Redis cache.
type Mirror interface {
	GetSchool(ctx context.Context, playerID int) (string, bool)
	SetSchool(ctx context.Context, playerID int, school string)
}

// SchoolCache is a durable map from player identifier to resolved
// school text. A school is permanent biographical fact, so entries
// never expire; the file is rewritten after every new resolution to
// survive interruption mid-discovery.
type SchoolCache struct {
	path    string
	entries map[string]string
	mirror  Mirror
}

// LoadSchoolCache reads the cache file at path. A missing or malformed
// file yields an empty cache, not an error. mirror may be nil.
func LoadSchoolCache(path string, mirror Mirror) *SchoolCache {
	c := &SchoolCache{
		path:    path,
		entries: make(map[string]string),
		mirror:  mirror,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("School cache file malformed, starting empty")
		c.entries = make(map[string]string)
	}
	return c
}

// Len returns the number of cached entries.
func (c *SchoolCache) Len() int {
	return len(c.entries)
}

// Get looks up a player's school, consulting the local file first and
// the mirror second. Mirror hits are copied back into the file.
func (c *SchoolCache) Get(ctx context.Context, playerID int) (string, bool) {
	key := strconv.Itoa(playerID)
	if school, ok := c.entries[key]; ok {
		return school, true
	}
	if c.mirror != nil {
		if school, ok := c.mirror.GetSchool(ctx, playerID); ok {
			c.entries[key] = school
			if err := c.flush(); err != nil {
				log.Warn().Err(err).Msg("Failed to persist school cache")
			}
			return school, true
		}
	}
	return "", false
}

// Put records a freshly resolved school and persists the whole cache.
func (c *SchoolCache) Put(ctx context.Context, playerID int, school string) error {
	c.entries[strconv.Itoa(playerID)] = school
	if c.mirror != nil {
		c.mirror.SetSchool(ctx, playerID, school)
	}
	if err := c.flush(); err != nil {
		return fmt.Errorf("failed to persist school cache: %w", err)
	}
	return nil
}

func (c *SchoolCache) flush() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}
