package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"persona-mcp/internal/persona"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
)

// SnapshotCache persists the last good entry log as snappy-compressed JSONL.
type SnapshotCache struct {
	Dir string
}

func (c *SnapshotCache) path(dataset string) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%s.jsonl.sz", dataset))
}

// Save writes entries for dataset via a temp file and atomic rename.
func (c *SnapshotCache) Save(dataset string, entries []persona.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := encoder.Encode(e); err != nil {
			return fmt.Errorf("failed to encode entry: %w", err)
		}
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := c.path(dataset)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, snappy.Encode(nil, buf.Bytes()), 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("dataset", dataset).Int("count", len(entries)).Msg("Entry snapshot saved to cache")
	return nil
}

// Load reads the snapshot for dataset. A missing snapshot yields ErrNoEntries.
func (c *SnapshotCache) Load(dataset string) ([]persona.Entry, error) {
	compressed, err := os.ReadFile(c.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cached snapshot for %s: %w", dataset, ErrNoEntries)
		}
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cache: %w", err)
	}

	var entries []persona.Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e persona.Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Str("dataset", dataset).Msg("Skipping invalid JSON line in cache")
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cache: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty snapshot for %s: %w", dataset, ErrNoEntries)
	}

	log.Info().Str("dataset", dataset).Int("count", len(entries)).Msg("Loaded entries from cache")
	return entries, nil
}

// Delete removes the snapshot for dataset.
func (c *SnapshotCache) Delete(dataset string) error {
	if err := os.Remove(c.path(dataset)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
