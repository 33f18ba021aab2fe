// Package github is the remote diff provider, a thin client for the
// GitHub REST API. It fetches PR/commit metadata as JSON and the raw
// diff through the diff media type; failures surface as typed errors
// and are never retried.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aidiff/aidiff/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	acceptJSON = "application/vnd.github+json"
	acceptDiff = "application/vnd.github.v3.diff"
	apiVersion = "2022-11-28"

	commitsPerPage = 100
)

// Client is an HTTP client for the GitHub REST API. An empty token
// means unauthenticated requests.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a GitHub API client. The token, when non-empty, is
// sent as a Bearer credential on every request.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL overrides the API base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// FetchPullRequest produces the DiffResult for a pull request:
// title and stats from the metadata endpoint, the full commit list
// (paginated), and the raw unified diff.
func (c *Client) FetchPullRequest(ctx context.Context, owner, repo string, number int) (domain.DiffResult, error) {
	metaURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	body, err := c.get(ctx, metaURL, acceptJSON)
	if err != nil {
		return domain.DiffResult{}, err
	}
	var meta pullResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.DiffResult{}, fmt.Errorf("parse pull request %d metadata: %w", number, err)
	}

	commits, err := c.listPullCommits(ctx, owner, repo, number)
	if err != nil {
		return domain.DiffResult{}, err
	}

	diffBody, err := c.get(ctx, metaURL, acceptDiff)
	if err != nil {
		return domain.DiffResult{}, err
	}

	title := fmt.Sprintf("PR #%d", number)
	if meta.Title != "" {
		title = fmt.Sprintf("PR #%d — %s", number, meta.Title)
	}

	return domain.DiffResult{
		Title:    title,
		DiffText: string(diffBody),
		Summary: domain.DiffSummary{
			FilesChanged: meta.ChangedFiles,
			Insertions:   meta.Additions,
			Deletions:    meta.Deletions,
		},
		Commits: commits,
	}, nil
}

// FetchCommit produces the DiffResult for a single remote commit.
func (c *Client) FetchCommit(ctx context.Context, owner, repo, sha string) (domain.DiffResult, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, sha)

	body, err := c.get(ctx, url, acceptJSON)
	if err != nil {
		return domain.DiffResult{}, err
	}
	var meta commitResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.DiffResult{}, fmt.Errorf("parse commit %s metadata: %w", sha, err)
	}

	diffBody, err := c.get(ctx, url, acceptDiff)
	if err != nil {
		return domain.DiffResult{}, err
	}

	resolved := meta.SHA
	if resolved == "" {
		resolved = sha
	}
	short := shortSHA(resolved)
	subject := domain.FirstLine(meta.Commit.Message)

	title := fmt.Sprintf("Commit %s", short)
	if subject != "" {
		title = fmt.Sprintf("Commit %s — %s", short, subject)
	}

	return domain.DiffResult{
		Title:    title,
		DiffText: string(diffBody),
		Summary: domain.DiffSummary{
			FilesChanged: len(meta.Files),
			Insertions:   meta.Stats.Additions,
			Deletions:    meta.Stats.Deletions,
		},
		Commits: []domain.Commit{{
			SHA:      resolved,
			ShortSHA: short,
			Author:   meta.Commit.Author.Name,
			Date:     dateOnly(meta.Commit.Author.Date),
			Message:  subject,
		}},
	}, nil
}

// listPullCommits fetches a single page of up to commitsPerPage
// commits. PRs beyond that size simply truncate the list.
func (c *Client) listPullCommits(ctx context.Context, owner, repo string, number int) ([]domain.Commit, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/commits?per_page=%d",
		c.baseURL, owner, repo, number, commitsPerPage)

	body, err := c.get(ctx, url, acceptJSON)
	if err != nil {
		return nil, err
	}
	var items []pullCommit
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parse pull request %d commits: %w", number, err)
	}

	commits := make([]domain.Commit, 0, len(items))
	for _, item := range items {
		commits = append(commits, domain.Commit{
			SHA:      item.SHA,
			ShortSHA: shortSHA(item.SHA),
			Author:   item.Commit.Author.Name,
			Date:     dateOnly(item.Commit.Author.Date),
			Message:  domain.FirstLine(item.Commit.Message),
		})
	}
	return commits, nil
}

func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	log.Debug().Str("url", url).Str("accept", accept).Msg("github request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, MapHTTPError(resp.StatusCode, resp.Header, body, url)
	}
	return body, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// dateOnly trims an ISO-8601 timestamp to its date portion.
func dateOnly(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}
