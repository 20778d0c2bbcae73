package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// GitHubForge implements the Forge interface for GitHub and GitHub Enterprise.
type GitHubForge struct {
	BaseURL string // "https://api.github.com" or "https://ghes.example.com/api/v3"
	Token   string
	Owner   string
	Repo    string
}

// NewGitHub creates a GitHub forge client for the given "owner/repo".
// An empty token falls back to env: GITHUB_TOKEN, GH_TOKEN.
func NewGitHub(baseURL, repo, token string) *GitHubForge {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}

	var owner, name string
	if idx := strings.Index(repo, "/"); idx >= 0 {
		owner = repo[:idx]
		name = repo[idx+1:]
	}

	apiBase := "https://api.github.com"
	if baseURL != "" && !strings.Contains(baseURL, "github.com") {
		// GitHub Enterprise Server
		apiBase = strings.TrimRight(baseURL, "/") + "/api/v3"
	}

	return &GitHubForge{
		BaseURL: apiBase,
		Token:   token,
		Owner:   owner,
		Repo:    name,
	}
}

func (g *GitHubForge) Provider() Provider { return GitHub }

func (g *GitHubForge) apiURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

func (g *GitHubForge) doJSON(ctx context.Context, method, url string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("GitHub API %s %s: %d %s", method, url, resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.Unmarshal(respBody, result)
	}
	return nil
}

func (g *GitHubForge) CommitAuthor(ctx context.Context, sha string) (string, error) {
	var resp struct {
		Author *struct {
			Login string `json:"login"`
		} `json:"author"`
		Commit struct {
			Author struct {
				Name string `json:"name"`
			} `json:"author"`
		} `json:"commit"`
	}

	if err := g.doJSON(ctx, "GET", g.apiURL("/commits/"+sha), nil, &resp); err != nil {
		return "", err
	}

	// Prefer the account login so the handle is @-mentionable; fall back to
	// the git author name for commits with no linked account.
	if resp.Author != nil && resp.Author.Login != "" {
		return "@" + resp.Author.Login, nil
	}
	if resp.Commit.Author.Name != "" {
		return resp.Commit.Author.Name, nil
	}
	return "", fmt.Errorf("commit %s has no author information", sha)
}

func (g *GitHubForge) CreateIssue(ctx context.Context, opts IssueOptions) (*Issue, error) {
	payload := map[string]interface{}{
		"title": opts.Title,
		"body":  opts.Body,
	}
	if len(opts.Labels) > 0 {
		payload["labels"] = opts.Labels
	}

	var resp struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}

	err := g.doJSON(ctx, "POST", g.apiURL("/issues"), payload, &resp)
	if err != nil {
		return nil, err
	}

	return &Issue{
		ID:  fmt.Sprintf("%d", resp.Number),
		URL: resp.HTMLURL,
	}, nil
}
