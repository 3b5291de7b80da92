package source

import (
	"context"
	"fmt"
	"os"

	"persona-mcp/internal/persona"
)

// FileSource reads the entry log from a local JSON file.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entry file: %w", err)
	}
	defer f.Close()

	return DecodeEntries(f, s.Path)
}
