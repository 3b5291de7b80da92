// Package source loads time entries from external collaborators (HTTP feed,
// local file, SQLite) and hands them to the analytical core as clean,
// in-memory slices.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoEntries means a source answered but yielded no usable entries.
	ErrNoEntries = errors.New("no time entries")
	// ErrAllSourcesFailed is returned when every strategy in a Chain failed.
	ErrAllSourcesFailed = errors.New("all entry sources failed")
)

// Source is one strategy for obtaining the entry log.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]persona.Entry, error)
}

// nonFinite matches bare NaN/Infinity tokens in value position, which some
// exporters emit even though they are not valid JSON.
var nonFinite = regexp.MustCompile(`([:\[,]\s*)[-+]?(?:NaN|Infinity)\b`)

// Sanitize rewrites non-finite number tokens to null.
func Sanitize(data []byte) []byte {
	return nonFinite.ReplaceAll(data, []byte("${1}null"))
}

// DecodeEntries parses a JSON array of entries. Records that cannot be
// decoded (null hours, unknown persona, bad dates) are dropped with a warning.
func DecodeEntries(r io.Reader, origin string) ([]persona.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", origin, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(Sanitize(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", origin, err)
	}

	entries := make([]persona.Entry, 0, len(raw))
	dropped := 0
	for i, rec := range raw {
		var e persona.Entry
		if err := json.Unmarshal(rec, &e); err != nil {
			dropped++
			log.Debug().Err(err).Int("index", i).Str("source", origin).Msg("Dropping malformed entry")
			continue
		}
		if e.Hours < 0 {
			dropped++
			log.Debug().Int("index", i).Float64("hours", e.Hours).Str("source", origin).Msg("Dropping negative entry")
			continue
		}
		entries = append(entries, e)
	}

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("kept", len(entries)).Str("source", origin).Msg("Dropped malformed entries")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", origin, ErrNoEntries)
	}
	return entries, nil
}
