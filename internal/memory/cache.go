// Package memory implements the three thin, store-backed views described
// in spec §4.4: semantic cache, habit learning, and chronic experience.
// Each is grounded method-for-method on the corresponding original_source
// module, translated onto the shared SQLite store instead of a standalone
// JSON file.
package memory

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"strings"

	"github.com/umbrasol/umbrasol/internal/store"
	"github.com/umbrasol/umbrasol/internal/types"
)

// Cache is the semantic cache (Layer 1): exact-fingerprint lookup of a
// previously successful (tool, command) pair for a user request.
// Grounded on original_source/core/cache.py's SemanticCache.
type Cache struct {
	store *store.Store
}

func NewCache(s *store.Store) *Cache {
	return &Cache{store: s}
}

// Fingerprint reproduces SemanticCache._hash exactly: md5 of the
// lowercased, trimmed request text.
func Fingerprint(request string) string {
	norm := strings.ToLower(strings.TrimSpace(request))
	sum := md5.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached action for request, if any.
func (c *Cache) Get(ctx context.Context, request string) (types.Action, bool, error) {
	fp := Fingerprint(request)
	var tool, cmd string
	err := c.store.QueryRow(ctx,
		`SELECT tool, command FROM cache WHERE fingerprint = ?`, fp).Scan(&tool, &cmd)
	if err == sql.ErrNoRows {
		return types.Action{}, false, nil
	}
	if err != nil {
		return types.Action{}, false, err
	}
	return types.Action{Tool: types.Tool(tool), Cmd: cmd}, true, nil
}

// Set records a successful (tool, command) mapping for request, bumping
// the hit count on repeat sets. Mirrors SemanticCache.set's upsert intent.
func (c *Cache) Set(ctx context.Context, request string, tool types.Tool, cmd string) error {
	fp := Fingerprint(request)
	_, err := c.store.Exec(ctx,
		`INSERT INTO cache (fingerprint, tool, command, hit_count) VALUES (?, ?, ?, 1)
		 ON CONFLICT(fingerprint) DO UPDATE SET
		   tool = excluded.tool, command = excluded.command,
		   hit_count = hit_count + 1, updated_at = CURRENT_TIMESTAMP`,
		fp, string(tool), cmd)
	return err
}
