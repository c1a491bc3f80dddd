package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

const (
	WebSearchRateLimit  = 10
	WebSearchRateWindow = time.Minute
)

// InitWebSearch returns a web_search tool backed by Google (when
// GOOGLE_API_KEY and GOOGLE_SEARCH_ENGINE_ID are set) with DuckDuckGo as
// fallback, or nil when neither provider is available.
func InitWebSearch(ctx context.Context) tool.InvokableTool {
	googleTool := initGoogleSearch(ctx)
	duckTool := initDDGSearch(ctx)
	if googleTool == nil && duckTool == nil {
		log.Warn().Msg("web search tool disabled: no search providers available")
		return nil
	}
	return newWebSearchTool(googleTool, duckTool, newRateLimiter(WebSearchRateLimit, WebSearchRateWindow))
}

func newWebSearchTool(google, duck tool.InvokableTool, limiter *rateLimiter) tool.InvokableTool {
	ws := &webSearchTool{google: google, duck: duck, limiter: limiter}
	info := &schema.ToolInfo{
		Name: "web_search",
		Desc: "Search the web for a short fact the user asked about; " +
			"falls back to another provider if the first one fails.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Desc:     "Natural language search query",
				Type:     schema.String,
				Required: true,
			},
		}),
	}
	return utils.NewTool(info, ws.run)
}

type webSearchTool struct {
	google  tool.InvokableTool
	duck    tool.InvokableTool
	limiter *rateLimiter
}

type webSearchParams struct {
	Query string `json:"query"`
}

func (w *webSearchTool) run(ctx context.Context, params *webSearchParams) (string, error) {
	if params == nil {
		return "", errors.New("missing search parameters")
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", errors.New("query must not be empty")
	}
	if w.limiter != nil && !w.limiter.Allow() {
		return "", errors.New("web search rate limit exceeded, please retry in a minute")
	}

	payloadBytes, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", fmt.Errorf("marshal search params: %w", err)
	}
	payload := string(payloadBytes)

	for _, provider := range []struct {
		name string
		tool tool.InvokableTool
	}{{"google", w.google}, {"duckduckgo", w.duck}} {
		if provider.tool == nil {
			continue
		}
		result, err := provider.tool.InvokableRun(ctx, payload)
		if err == nil {
			return result, nil
		}
		log.Warn().Err(err).Str("provider", provider.name).Msg("web search failed")
	}
	return "", errors.New("no search provider succeeded")
}

func initDDGSearch(ctx context.Context) tool.InvokableTool {
	duckTool, err := duckduckgo.NewTextSearchTool(ctx, &duckduckgo.Config{
		ToolName:   "web_search_ddg",
		ToolDesc:   "DuckDuckGo Search Tool (no token required)",
		MaxResults: 3,
		Region:     duckduckgo.RegionWT,
		Timeout:    10 * time.Second,
	})
	if err != nil {
		log.Warn().Err(err).Msg("duckduckgo search disabled")
		return nil
	}
	return duckTool
}

func initGoogleSearch(ctx context.Context) tool.InvokableTool {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	engineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	if apiKey == "" || engineID == "" {
		log.Debug().Msg("google search disabled: missing GOOGLE_API_KEY or GOOGLE_SEARCH_ENGINE_ID")
		return nil
	}
	googleTool, err := googlesearch.NewTool(ctx, &googlesearch.Config{
		ToolName:       "web_search_google",
		ToolDesc:       "Google Search Tool",
		APIKey:         apiKey,
		SearchEngineID: engineID,
		Lang:           "en",
		Num:            5,
	})
	if err != nil {
		log.Warn().Err(err).Msg("google search disabled")
		return nil
	}
	return googleTool
}

// rateLimiter is a sliding window over the last hits.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
	hits   []time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, now: time.Now}
}

func (l *rateLimiter) Allow() bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-l.window)
	idx := 0
	for _, t := range l.hits {
		if t.After(cutoff) {
			break
		}
		idx++
	}
	l.hits = l.hits[idx:]
	if len(l.hits) >= l.limit {
		return false
	}
	l.hits = append(l.hits, now)
	return true
}
