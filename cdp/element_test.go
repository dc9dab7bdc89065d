package cdp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollfx/scrollfx/log"
)

func TestLocator(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `document.querySelectorAll(".feature-card")[2]`, Locator("feature-card", 2))
}

func TestRemoteElement(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		exprs []string
	)
	srv := fakeDevTools(t, func(method string, params json.RawMessage) (any, []string) {
		if method != "Runtime.evaluate" {
			return nil, nil
		}
		var p struct {
			Expression string `json:"expression"`
		}
		assert.NoError(t, json.Unmarshal(params, &p))
		mu.Lock()
		exprs = append(exprs, p.Expression)
		mu.Unlock()
		return map[string]any{
			"result": map[string]any{"type": "boolean", "value": true},
		}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.NewNullLogger()
	client := NewClient(ctx, logger)
	require.NoError(t, client.Connect(wsAddr(srv)))
	defer client.Disconnect()

	el := NewRemoteElement(ctx, client, logger, "features#1", Locator("feature-card", 1))
	assert.Equal(t, "features#1", el.ID())

	assert.True(t, el.HasClass("sfx-hidden"))
	el.AddClass("sfx-visible")
	el.SetStyle("transition-delay", "0.1s")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, exprs, 3)
	for _, expr := range exprs {
		assert.Contains(t, expr, `document.querySelectorAll(".feature-card")[1]`)
	}
	assert.Contains(t, exprs[0], `classList.contains("sfx-hidden")`)
	assert.Contains(t, exprs[1], `classList.add("sfx-visible")`)
	assert.Contains(t, exprs[2], `style.setProperty("transition-delay", "0.1s")`)
}
