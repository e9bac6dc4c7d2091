// Package internet is the Internet collaborator (spec §4.6): a single
// SwiftSearch(query) call returning a short textual summary, with a
// bounded in-memory TTL cache and a graceful offline fallback. Grounded
// on the teacher's internal/tools/websearch.go (Bocha API request shape,
// ERROR:-prefixed failure convention); original_source/core/internet.py
// informs the caching/offline-fallback intent, which the teacher's tool
// doesn't itself implement.
package internet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	bochaAPIURL     = "https://api.bochaai.com/v1/web-search"
	bochaMaxResults = 5
	defaultTTL      = 4 * time.Hour
)

// Collaborator wraps the web-search call with a TTL cache so repeated
// identical queries within the window don't re-hit the network.
type Collaborator struct {
	apiKey string
	ttl    time.Duration
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	result    string
	expiresAt time.Time
}

// New builds a Collaborator. An empty apiKey is allowed: SwiftSearch then
// always returns the offline-fallback message instead of erroring, so the
// Orchestrator's retry loop doesn't treat "no API key configured" as a
// transient failure worth retrying.
func New(apiKey string) *Collaborator {
	return &Collaborator{
		apiKey: apiKey,
		ttl:    defaultTTL,
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  make(map[string]cacheEntry),
	}
}

// SwiftSearch returns a short formatted summary for query, serving from
// the TTL cache when available.
func (c *Collaborator) SwiftSearch(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.result, nil
	}
	c.mu.Unlock()

	if c.apiKey == "" {
		return "OFFLINE: no web search API key configured", nil
	}

	result, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return result, nil
}

func (c *Collaborator) search(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	reqBody, err := json.Marshal(map[string]any{
		"query":     query,
		"freshness": "noLimit",
		"summary":   false,
		"count":     bochaMaxResults,
	})
	if err != nil {
		return "", fmt.Errorf("internet: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bochaAPIURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("internet: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("internet: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("internet: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("internet: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result bochaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("internet: parse response: %w", err)
	}
	return formatResult(query, &result), nil
}

type bochaResponse struct {
	WebPages struct {
		Value []bochaWebPage `json:"value"`
	} `json:"webPages"`
}

type bochaWebPage struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Summary       string `json:"summary"`
	DatePublished string `json:"datePublished"`
}

func formatResult(query string, r *bochaResponse) string {
	pages := r.WebPages.Value
	if len(pages) == 0 {
		return fmt.Sprintf("No results found for: %q", query)
	}

	var sb strings.Builder
	for i, p := range pages {
		if i >= bochaMaxResults {
			break
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Name)
		sb.WriteString("\n")
		text := p.Snippet
		if p.Summary != "" {
			text = p.Summary
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
		if len(p.DatePublished) >= 10 {
			sb.WriteString(p.DatePublished[:10])
			sb.WriteString(" ")
		}
		sb.WriteString(p.URL)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
