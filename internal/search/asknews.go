package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	askNewsSearchURL = "https://api.asknews.app/v1/news/search"
	askNewsArticles  = 10
)

type AskNewsClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewAskNewsClient(apiKey string) *AskNewsClient {
	return &AskNewsClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type askNewsResponse struct {
	Articles []struct {
		Title   string `json:"eng_title"`
		Summary string `json:"summary"`
		Source  string `json:"source_id"`
		URL     string `json:"article_url"`
		PubDate string `json:"pub_date"`
	} `json:"as_articles"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Search runs one news search and formats the hits into a text block
// suitable for appending to a generation prompt.
func (c *AskNewsClient) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("n_articles", fmt.Sprintf("%d", askNewsArticles))
	params.Set("return_type", "both")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, askNewsSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result askNewsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal search response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("search API error: %s", result.Error.Message)
	}

	if len(result.Articles) == 0 {
		return "", fmt.Errorf("search returned no articles for query: %s", query)
	}

	var sb strings.Builder
	for _, a := range result.Articles {
		sb.WriteString(fmt.Sprintf("**%s** (%s, %s)\n%s\n%s\n\n",
			a.Title, a.Source, a.PubDate, a.Summary, a.URL))
	}
	return strings.TrimSpace(sb.String()), nil
}
