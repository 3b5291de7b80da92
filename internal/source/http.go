package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
)

// HTTPSource fetches the entry log as a JSON array over HTTP.
type HTTPSource struct {
	URL        string
	httpClient *http.Client
}

// NewHTTPSource creates a source for url. A zero timeout leaves deadlines to the caller's context.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Fetch(ctx context.Context) ([]persona.Entry, error) {
	log.Info().Msg("Requesting time entries")
	log.Debug().Str("url", s.URL).Msg("Entry feed details")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("entry feed not found at %s", s.URL)
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("entry feed refused access (%d)", resp.StatusCode)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return nil, fmt.Errorf("entry feed rate limit exceeded, retry after %s seconds", retryAfter)
			}
			return nil, fmt.Errorf("entry feed rate limit exceeded")
		default:
			return nil, fmt.Errorf("entry feed returned status %d", resp.StatusCode)
		}
	}

	return DecodeEntries(resp.Body, s.URL)
}
