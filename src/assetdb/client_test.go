package assetdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuild(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/builds/20260829.3", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(BuildRecord{
			ID: "20260829.3",
			Assets: []Asset{
				{ID: "asset-1", Name: "demo.core", Version: "1.2.3"},
				{ID: "asset-2", Name: "installer"},
			},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok")
	rec, err := c.GetBuild(context.Background(), "20260829.3")
	require.NoError(t, err)

	assert.Equal(t, "20260829.3", rec.ID)
	require.Len(t, rec.Assets, 2)
	assert.Equal(t, "demo.core", rec.Assets[0].Name)
	assert.Empty(t, rec.Assets[1].Version)
}

func TestGetBuildNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such build", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	_, err := c.GetBuild(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAddAssetLocation(t *testing.T) {
	t.Parallel()

	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/assets/asset-1/locations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	err := c.AddAssetLocation(context.Background(), "asset-1", "https://feed.example.com", "package-feed")
	require.NoError(t, err)

	assert.Equal(t, "https://feed.example.com", got["location"])
	assert.Equal(t, "package-feed", got["kind"])
}

func TestAddAssetLocationServerError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	err := c.AddAssetLocation(context.Background(), "asset-1", "https://feed.example.com", "blob-container")
	assert.Error(t, err)
}
