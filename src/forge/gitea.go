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

// GiteaForge implements the Forge interface for Gitea and Forgejo instances.
type GiteaForge struct {
	BaseURL string // e.g., "https://codeberg.org"
	Token   string
	Owner   string
	Repo    string
}

// NewGitea creates a Gitea/Forgejo forge client for the given "owner/repo".
// An empty token falls back to env: GITEA_TOKEN, FORGEJO_TOKEN.
func NewGitea(baseURL, repo, token string) *GiteaForge {
	if token == "" {
		token = os.Getenv("GITEA_TOKEN")
	}
	if token == "" {
		token = os.Getenv("FORGEJO_TOKEN")
	}

	var owner, name string
	if idx := strings.Index(repo, "/"); idx >= 0 {
		owner = repo[:idx]
		name = repo[idx+1:]
	}

	return &GiteaForge{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Owner:   owner,
		Repo:    name,
	}
}

func (g *GiteaForge) Provider() Provider { return Gitea }

func (g *GiteaForge) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v1/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

func (g *GiteaForge) doJSON(ctx context.Context, method, url string, body interface{}, result interface{}) error {
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
	req.Header.Set("Authorization", "token "+g.Token)
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
		return fmt.Errorf("Gitea API %s %s: %d %s", method, url, resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.Unmarshal(respBody, result)
	}
	return nil
}

func (g *GiteaForge) CommitAuthor(ctx context.Context, sha string) (string, error) {
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

	if err := g.doJSON(ctx, "GET", g.apiURL("/git/commits/"+sha), nil, &resp); err != nil {
		return "", err
	}

	if resp.Author != nil && resp.Author.Login != "" {
		return "@" + resp.Author.Login, nil
	}
	if resp.Commit.Author.Name != "" {
		return resp.Commit.Author.Name, nil
	}
	return "", fmt.Errorf("commit %s has no author information", sha)
}

func (g *GiteaForge) CreateIssue(ctx context.Context, opts IssueOptions) (*Issue, error) {
	payload := map[string]interface{}{
		"title": opts.Title,
		"body":  opts.Body,
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
