package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kayz/techwatch/internal/feed"
)

const githubDefaultBaseURL = "https://api.github.com"

// GitHubTrending approximates the trending page through the search API:
// repositories created inside the period window, ordered by stars. The
// trending page itself has no API and its markup shifts too often to scrape.
type GitHubTrending struct {
	name    string
	baseURL string
	client  *client
	now     func() time.Time
}

func NewGitHubTrending(baseURL string, c *client) *GitHubTrending {
	if baseURL == "" {
		baseURL = githubDefaultBaseURL
	}
	return &GitHubTrending{name: "github_trending", baseURL: baseURL, client: c, now: time.Now}
}

func (g *GitHubTrending) Name() string { return g.name }

func (g *GitHubTrending) Fetch(ctx context.Context, req Request) ([]feed.Item, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 15
	}

	since := g.now().AddDate(0, 0, -periodDays(req.Period))
	q := fmt.Sprintf("created:>%s stars:>10", since.Format("2006-01-02"))

	u := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&per_page=%d",
		g.baseURL, url.QueryEscape(q), limit)
	body, err := g.client.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("github trending: %w", err)
	}

	var result struct {
		Items []struct {
			Name            string `json:"name"`
			FullName        string `json:"full_name"`
			HTMLURL         string `json:"html_url"`
			Description     string `json:"description"`
			Language        string `json:"language"`
			StargazersCount int    `json:"stargazers_count"`
			OpenIssues      int    `json:"open_issues_count"`
			CreatedAt       string `json:"created_at"`
			Owner           struct {
				Login string `json:"login"`
			} `json:"owner"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("github trending: parse response: %w", err)
	}

	items := make([]feed.Item, 0, len(result.Items))
	for _, repo := range result.Items {
		it := feed.Item{
			Title:       repo.FullName,
			URL:         repo.HTMLURL,
			Description: truncate(cleanText(repo.Description), 300),
			Author:      repo.Owner.Login,
			Score:       repo.StargazersCount,
			Extra: map[string]string{
				"name":  repo.Name,
				"stars": strconv.Itoa(repo.StargazersCount),
			},
		}
		if repo.Language != "" {
			it.Extra["language"] = repo.Language
		}
		if t, err := time.Parse(time.RFC3339, repo.CreatedAt); err == nil {
			it.PublishedAt = t
		}
		items = append(items, it)
	}
	return items, nil
}

func periodDays(period string) int {
	switch period {
	case "today":
		return 1
	case "month":
		return 30
	default:
		return 7
	}
}
