package discord

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sneknetwork/snek/snek/internal"
)

// ChannelCache stores user -> DM channel ids and optionally persists them to disk, so that
// notifying a user does not open a new channel every time.
type ChannelCache struct {
	log *slog.Logger

	mu   sync.RWMutex
	path string
	data map[snowflake.ID]snowflake.ID
}

// NewMemoryChannelCache returns a cache that is not persisted.
func NewMemoryChannelCache() *ChannelCache {
	return &ChannelCache{log: slog.Default(), data: make(map[snowflake.ID]snowflake.ID)}
}

// NewChannelCache creates a cache backed by the file at path. If the file exists it is
// loaded, otherwise an empty cache is created and written to path.
func NewChannelCache(log *slog.Logger, path string) (*ChannelCache, error) {
	c := NewMemoryChannelCache()
	c.log = log.With("subsystem", "dm-channel-cache")
	c.path = path
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(filepath.Dir(path), internal.DirectoryPermissions); err != nil {
				return nil, err
			}
			return c, writeJSONFile(path, c.data)
		}
		return nil, err
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(&c.data); err != nil {
		// Start empty, the file is rewritten on the next Set.
		c.data = make(map[snowflake.ID]snowflake.ID)
	}
	return c, nil
}

// Get returns the DM channel of user and whether it was cached.
func (c *ChannelCache) Get(user snowflake.ID) (snowflake.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[user]
	return v, ok
}

// Set stores the DM channel of user and persists the cache, if it has a path. Writes to the
// file happen one at a time.
func (c *ChannelCache) Set(user, channel snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[user] = channel
	if c.path == "" {
		return
	}
	if err := writeJSONFile(c.path, c.data); err != nil {
		c.log.Error("failed to save dm channel cache", "path", c.path, "error", err)
	}
}

// Delete forgets the DM channel of user.
func (c *ChannelCache) Delete(user snowflake.ID) {
	c.mu.Lock()
	delete(c.data, user)
	c.mu.Unlock()
}

func writeJSONFile(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	err = enc.Encode(v)
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
