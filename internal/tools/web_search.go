package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const webSearchTimeout = 10 * time.Second

const ddgResultLimit = 5

var ddgResultPattern = regexp.MustCompile(`(?s)class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>.*?class="result__snippet"[^>]*>(.*?)</`)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// WebSearchTool searches the live web via DuckDuckGo's HTML-lite endpoint
// or a configured SearXNG instance, chosen by config.Search.Engine.
type WebSearchTool struct{}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the internet for current information. Use it for news, facts, or anything time-sensitive."
}

func (t *WebSearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search query."},
		},
		"required": []string{"query"},
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, rawArgs json.RawMessage, tc Context) string {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(rawArgs, &args)
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "Please provide a search query."
	}

	if tc.Limiter != nil {
		if err := tc.Limiter.Wait(ctx); err != nil {
			return fmt.Sprintf("search request cancelled: %v", err)
		}
	}

	switch tc.SearchConfig.Engine {
	case "duckduckgo", "":
		return duckduckgoSearch(ctx, query)
	case "searxng":
		if tc.SearchConfig.SearxngURL == "" {
			return "SearXNG URL is not configured."
		}
		return searxngSearch(ctx, query, tc.SearchConfig.SearxngURL)
	default:
		return "Unsupported search engine."
	}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: webSearchTimeout}
}

func duckduckgoSearch(ctx context.Context, query string) string {
	target := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("search request failed: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Sprintf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("search request failed: %v", err)
	}
	return parseDDGHTML(string(body))
}

func parseDDGHTML(body string) string {
	matches := ddgResultPattern.FindAllStringSubmatch(body, ddgResultLimit)
	if len(matches) == 0 {
		return "No search results."
	}
	var out strings.Builder
	for i, m := range matches {
		href := resolveDDGRedirect(m[1])
		title := strings.TrimSpace(stripHTMLTags(m[2]))
		snippet := strings.TrimSpace(stripHTMLTags(m[3]))
		fmt.Fprintf(&out, "[%d] %s\n%s\n%s", i+1, title, href, snippet)
		if i < len(matches)-1 {
			out.WriteString("\n\n")
		}
	}
	return out.String()
}

// resolveDDGRedirect unwraps DuckDuckGo's "/l/?uddg=<encoded>" redirect
// wrapper around result links, matching parse_ddg_html's uddg handling.
func resolveDDGRedirect(raw string) string {
	idx := strings.Index(raw, "uddg=")
	if idx == -1 {
		return html.UnescapeString(raw)
	}
	encoded := raw[idx+len("uddg="):]
	if amp := strings.Index(encoded, "&"); amp != -1 {
		encoded = encoded[:amp]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return raw
	}
	return decoded
}

func stripHTMLTags(s string) string {
	unescaped := htmlTagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(unescaped)
}

func searxngSearch(ctx context.Context, query, baseURL string) string {
	target := strings.TrimRight(baseURL, "/") + "/search?q=" + url.QueryEscape(query) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("search request failed: %v", err)
	}

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Sprintf("search request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "failed to parse search results."
	}
	if len(payload.Results) == 0 {
		return "No search results."
	}

	var out strings.Builder
	limit := len(payload.Results)
	if limit > 5 {
		limit = 5
	}
	for i, r := range payload.Results[:limit] {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&out, "[%d] %s\n%s\n%s\n\n", i+1, title, r.URL, r.Content)
	}
	return out.String()
}
