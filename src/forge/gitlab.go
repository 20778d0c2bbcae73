package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// GitLabForge implements the Forge interface for GitLab instances.
type GitLabForge struct {
	BaseURL   string // e.g., "https://gitlab.prplanit.com"
	Token     string // private token or job token
	ProjectID string // numeric ID or "group/project" URL-encoded path
}

// NewGitLab creates a GitLab forge client for the given project path.
// An empty token falls back to env: GITLAB_TOKEN, CI_JOB_TOKEN.
func NewGitLab(baseURL, repo, token string) *GitLabForge {
	if token == "" {
		token = os.Getenv("GITLAB_TOKEN")
	}
	if token == "" {
		token = os.Getenv("CI_JOB_TOKEN")
	}

	return &GitLabForge{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		ProjectID: repo,
	}
}

func (g *GitLabForge) Provider() Provider { return GitLab }

func (g *GitLabForge) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s%s", g.BaseURL, url.PathEscape(g.ProjectID), path)
}

func (g *GitLabForge) doJSON(ctx context.Context, method, url string, body interface{}, result interface{}) error {
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
	req.Header.Set("PRIVATE-TOKEN", g.Token)
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
		return fmt.Errorf("GitLab API %s %s: %d %s", method, url, resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.Unmarshal(respBody, result)
	}
	return nil
}

func (g *GitLabForge) CommitAuthor(ctx context.Context, sha string) (string, error) {
	var resp struct {
		AuthorName  string `json:"author_name"`
		AuthorEmail string `json:"author_email"`
	}

	if err := g.doJSON(ctx, "GET", g.apiURL("/repository/commits/"+sha), nil, &resp); err != nil {
		return "", err
	}

	if resp.AuthorName != "" {
		return resp.AuthorName, nil
	}
	if resp.AuthorEmail != "" {
		return resp.AuthorEmail, nil
	}
	return "", fmt.Errorf("commit %s has no author information", sha)
}

func (g *GitLabForge) CreateIssue(ctx context.Context, opts IssueOptions) (*Issue, error) {
	payload := map[string]interface{}{
		"title":       opts.Title,
		"description": opts.Body,
	}
	if len(opts.Labels) > 0 {
		payload["labels"] = strings.Join(opts.Labels, ",")
	}

	var resp struct {
		IID    int    `json:"iid"`
		WebURL string `json:"web_url"`
	}

	err := g.doJSON(ctx, "POST", g.apiURL("/issues"), payload, &resp)
	if err != nil {
		return nil, err
	}

	return &Issue{
		ID:  fmt.Sprintf("%d", resp.IID),
		URL: resp.WebURL,
	}, nil
}
