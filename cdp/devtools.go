package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// devtoolsTarget is one entry of the DevTools /json/list endpoint.
type devtoolsTarget struct {
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ResolvePageWebSocketURL asks the browser's DevTools HTTP endpoint (for
// example "localhost:9222") for its open targets and returns the websocket
// URL of the first page target, preferring one whose URL contains urlHint
// when given.
func ResolvePageWebSocketURL(ctx context.Context, host, urlHint string) (string, error) {
	endpoint := fmt.Sprintf("http://%s/json/list", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building DevTools list request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying DevTools endpoint %q: %w", endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var targets []devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("decoding DevTools target list: %w", err)
	}

	var fallback string
	for _, t := range targets {
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			continue
		}
		if urlHint != "" && strings.Contains(t.URL, urlHint) {
			return t.WebSocketDebuggerURL, nil
		}
		if fallback == "" {
			fallback = t.WebSocketDebuggerURL
		}
	}
	if fallback == "" {
		return "", errors.Errorf("no page target found at %q", host)
	}
	return fallback, nil
}
