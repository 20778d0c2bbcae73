// Package assetdb is the client for the central build-asset registry: the
// service that knows, for every asset a build produced, where copies of it
// live. The publisher fetches one build record up front and appends a new
// location to each asset it managed to upload.
package assetdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Asset is one registered asset of a build.
type Asset struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// BuildRecord is the registry's view of one build and its assets.
type BuildRecord struct {
	ID     string  `json:"id"`
	Assets []Asset `json:"assets"`
}

// Client talks to the build-asset registry's JSON API.
type Client struct {
	http httpClient
}

// NewClient creates a registry client for the given endpoint. The token is
// an opaque bearer credential.
func NewClient(baseURL, token string) *Client {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{http: httpClient{
		base:    strings.TrimRight(baseURL, "/"),
		headers: headers,
	}}
}

// GetBuild fetches the build record for buildID.
func (c *Client) GetBuild(ctx context.Context, buildID string) (*BuildRecord, error) {
	var rec BuildRecord
	u := fmt.Sprintf("%s/api/builds/%s", c.http.base, url.PathEscape(buildID))
	if _, err := c.http.doJSON(ctx, "GET", u, nil, &rec); err != nil {
		return nil, fmt.Errorf("fetching build %s: %w", buildID, err)
	}
	return &rec, nil
}

// AddAssetLocation registers a new storage location for an asset. The kind
// tag distinguishes package-feed locations from blob-container locations.
func (c *Client) AddAssetLocation(ctx context.Context, assetID, locationURL, kind string) error {
	payload := map[string]string{
		"location": locationURL,
		"kind":     kind,
	}
	u := fmt.Sprintf("%s/api/assets/%s/locations", c.http.base, url.PathEscape(assetID))
	if _, err := c.http.doJSON(ctx, "POST", u, payload, nil); err != nil {
		return fmt.Errorf("adding location for asset %s: %w", assetID, err)
	}
	return nil
}
